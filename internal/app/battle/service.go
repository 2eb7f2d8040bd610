/*
Package battle implements the submission pipeline and battle completion.

A submission is judged against the question's testcases; on success a
finishing position is assigned under a row-level lock on the room's battle
result, so positions are unique and contiguous no matter how submissions
race. Reaching the room's max winners — or the time limit, enforced both
lazily here and by the per-room timekeeper — completes the battle exactly
once.
*/
package battle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bitarena/internal/app/bus"
	"bitarena/internal/app/events"
	"bitarena/internal/app/judge"
	"bitarena/internal/app/rank"
	"bitarena/internal/app/room"
	"bitarena/internal/app/storage"
	"bitarena/internal/app/store"
	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/metrics"
)

// archiveExtensions maps submission languages onto archive file extensions.
var archiveExtensions = map[string]string{
	judge.LangPython:     ".py",
	judge.LangCpp:        ".cpp",
	judge.LangJava:       ".java",
	judge.LangJavaScript: ".js",
	judge.LangGo:         ".go",
}

// solutionURLTTL bounds how long a presigned solution download stays valid.
const solutionURLTTL = 10 * time.Minute

// Service runs submissions through the judge and owns battle completion.
type Service struct {
	store   *store.Store
	bus     *bus.Bus
	judge   *judge.Client
	rooms   *room.Service
	archive storage.ArchiveService
}

// NewService constructs the battle service. archive may be nil, which
// disables solution archiving.
func NewService(s *store.Store, b *bus.Bus, j *judge.Client, rooms *room.Service, archive storage.ArchiveService) *Service {
	return &Service{store: s, bus: b, judge: j, rooms: rooms, archive: archive}
}

// SubmitResult is the response of one judged submission. Position is set only
// for accepted submissions.
type SubmitResult struct {
	judge.Result
	Position int    `json:"position,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Submit judges a submission and, when every case passes, assigns the next
// finishing position. Re-submission by a user who already finished returns
// their existing position. The submission that fills the last winner slot
// completes the battle.
func (s *Service) Submit(ctx context.Context, caller room.Identity, roomID, questionID uuid.UUID, code, language string) (*SubmitResult, *errs.CustomError) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err == store.ErrNotFound {
		return nil, errs.NewError(errs.ErrQuestionNotFound)
	}
	if err != nil {
		logx.Error(err, "Failed to load question", "question_id", questionID)
		return nil, errs.NewError(errs.ErrStorage)
	}

	r, err := s.store.GetRoom(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		logx.Error(err, "Failed to load room", "room_id", roomID)
		return nil, errs.NewError(errs.ErrStorage)
	}

	if r.IsTerminal() {
		return nil, errs.NewError(errs.ErrBattleEnded)
	}
	if r.Status != store.RoomStatusPlaying || r.StartTime == nil {
		return nil, errs.NewError(errs.ErrBattleNotStarted)
	}

	// Lazy time-limit enforcement: a submission arriving past the limit
	// completes the battle instead of being judged.
	if r.TimeLimit > 0 {
		elapsed := time.Since(*r.StartTime)
		if elapsed > time.Duration(r.TimeLimit)*time.Minute {
			s.ForceComplete(ctx, roomID, "Battle ended due to time limit")
			return nil, errs.NewError(errs.ErrTimeLimitExceeded)
		}
	}

	testcases, err := s.store.ListTestCases(ctx, questionID)
	if err != nil {
		logx.Error(err, "Failed to load testcases", "question_id", questionID)
		return nil, errs.NewError(errs.ErrStorage)
	}
	if len(testcases) == 0 {
		return nil, errs.NewError(errs.ErrNoTestCases)
	}

	verdict, err := s.judge.Verify(ctx, code, language, testcases)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, mapJudgeError(err)
	}

	if !verdict.AllPassed {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return &SubmitResult{Result: *verdict}, nil
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()

	finish, customErr := s.recordFinish(ctx, caller, r, question.ID)
	if customErr != nil {
		return nil, customErr
	}

	if finish.alreadySubmitted {
		return &SubmitResult{
			Result:   *verdict,
			Position: finish.position,
			Message:  "You have already submitted a correct solution",
		}, nil
	}

	s.archiveSolution(ctx, roomID, caller.Username, language, code)

	if finish.completed {
		metrics.BattlesCompleted.WithLabelValues("winners").Inc()
		s.publishCompleted(ctx, roomID, finish.winners, r.Capacity, "Battle Ended!")
		s.rooms.PublishRoomUpdate(ctx)
	} else {
		verified := events.NewCodeVerified(caller.Username, finish.position, finish.completionTime)
		s.bus.Publish(ctx, bus.RoomTopic(roomID), verified)
		s.bus.Publish(ctx, bus.BattleTopic(roomID), verified)
	}

	logx.Info("Submission accepted", "room_id", roomID, "user", caller.Username, "position", finish.position)

	return &SubmitResult{Result: *verdict, Position: finish.position}, nil
}

// finishOutcome describes what one accepted submission did to the battle.
type finishOutcome struct {
	position         int
	completionTime   time.Time
	alreadySubmitted bool
	completed        bool
	winners          []store.ResultEntry
}

// recordFinish runs the position-assignment transaction: it serializes on
// the battle-result row lock, appends the finisher, updates win stats and
// ratings, and completes the room when the last winner slot fills.
func (s *Service) recordFinish(ctx context.Context, caller room.Identity, r *store.Room, questionID uuid.UUID) (*finishOutcome, *errs.CustomError) {
	outcome := &finishOutcome{}

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		result, err := q.LockBattleResult(ctx, r.ID, questionID)
		if err != nil {
			return err
		}

		for _, entry := range result.Results {
			if entry.Username == caller.Username {
				outcome.position = entry.Position
				outcome.completionTime = entry.CompletionTime
				outcome.alreadySubmitted = true
				return nil
			}
		}

		now := time.Now()
		entry := store.ResultEntry{
			Username:       caller.Username,
			Position:       len(result.Results) + 1,
			CompletionTime: now,
		}
		entries := append(result.Results, entry)

		if err := q.AppendBattleResult(ctx, result.ID, entries); err != nil {
			return err
		}

		outcome.position = entry.Position
		outcome.completionTime = now

		if entry.Position == 1 {
			if err := q.IncrementBattlesWon(ctx, caller.UserID); err != nil {
				return err
			}
		}

		maxWinners := room.MaxWinners(r.Capacity)
		if entry.Position < maxWinners {
			return nil
		}

		completed, err := q.CompleteRoom(ctx, r.ID)
		if err != nil {
			return err
		}
		if !completed {
			// The timer beat this transaction to the terminal transition.
			return nil
		}

		outcome.completed = true
		outcome.winners = truncateWinners(entries, maxWinners)

		if r.IsRanked {
			if err := s.applyRankings(ctx, q, r, entries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logx.Error(err, "Failed to record finish", "room_id", r.ID, "user", caller.Username)
		return nil, errs.NewError(errs.ErrStorage)
	}

	return outcome, nil
}

// ForceComplete transitions a playing room to completed and emits the
// terminal battle_completed event with whatever winners exist. It is
// idempotent: the losing caller of the status check-and-set is a no-op, so
// the timer-driven and submission-driven paths emit exactly one terminal
// event between them.
func (s *Service) ForceComplete(ctx context.Context, roomID uuid.UUID, message string) bool {
	var (
		completed bool
		winners   []store.ResultEntry
		capacity  int
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		r, err := q.GetRoomForUpdate(ctx, roomID)
		if err == store.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		capacity = r.Capacity

		changed, err := q.CompleteRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		completed = true

		result, err := q.GetBattleResult(ctx, roomID)
		if err != nil && err != store.ErrNotFound {
			return err
		}

		var entries []store.ResultEntry
		if result != nil {
			entries = result.Results
		}
		winners = truncateWinners(entries, room.MaxWinners(capacity))

		if r.IsRanked && len(entries) > 0 {
			if err := s.applyRankings(ctx, q, r, entries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logx.Error(err, "Force-complete failed", "room_id", roomID)
		return false
	}

	if completed {
		metrics.BattlesCompleted.WithLabelValues("timeout").Inc()
		s.publishCompleted(ctx, roomID, winners, capacity, message)
		s.rooms.PublishRoomUpdate(ctx)
		logx.Info("Battle force-completed", "room_id", roomID)
	}
	return completed
}

// applyRankings updates season ratings for every joined participant inside
// the completing transaction. Finishers take their positions; everyone else
// shares the place after the last finisher.
func (s *Service) applyRankings(ctx context.Context, q *store.Queries, r *store.Room, entries []store.ResultEntry) error {
	if len(entries) == 0 {
		return nil
	}

	season, err := q.GetActiveSeason(ctx)
	if err == store.ErrNotFound {
		logx.Warn("No active season, skipping rating update", "room_id", r.ID)
		return nil
	}
	if err != nil {
		return err
	}

	participants, err := q.ListParticipants(ctx, r.ID)
	if err != nil {
		return err
	}

	positionByUser := make(map[string]int, len(entries))
	for _, entry := range entries {
		positionByUser[entry.Username] = entry.Position
	}

	var (
		rankings  []*store.Ranking
		positions []int
	)
	lastPlace := len(entries) + 1

	for _, p := range participants {
		if p.Status != store.ParticipantJoined {
			continue
		}

		ranking, err := q.GetOrCreateRanking(ctx, p.UserID, season.ID)
		if err != nil {
			return err
		}

		position, finished := positionByUser[p.Username]
		if !finished {
			position = lastPlace
		}

		rankings = append(rankings, ranking)
		positions = append(positions, position)
	}

	if len(rankings) < 2 {
		return nil
	}

	if len(rankings) == 2 {
		winner, loser := rankings[0], rankings[1]
		if positions[1] < positions[0] {
			winner, loser = loser, winner
		}
		rank.Elo1v1(winner, loser, rank.DefaultK)
	} else {
		rank.EloSquad(rankings, positions, rank.DefaultK)
	}

	for _, ranking := range rankings {
		if err := q.SaveRanking(ctx, ranking); err != nil {
			return err
		}
	}
	return nil
}

func truncateWinners(entries []store.ResultEntry, maxWinners int) []store.ResultEntry {
	if len(entries) > maxWinners {
		entries = entries[:maxWinners]
	}
	return entries
}

func (s *Service) publishCompleted(ctx context.Context, roomID uuid.UUID, winners []store.ResultEntry, capacity int, message string) {
	event := events.NewBattleCompleted(winners, capacity, message)
	s.bus.Publish(ctx, bus.RoomTopic(roomID), event)
	s.bus.Publish(ctx, bus.BattleTopic(roomID), event)
}

// archiveSolution stores an accepted submission in the archive bucket,
// best-effort.
func (s *Service) archiveSolution(ctx context.Context, roomID uuid.UUID, username, language, code string) {
	if s.archive == nil {
		return
	}

	key := solutionKey(roomID, username, language)
	if err := s.archive.Put(ctx, key, "text/plain", []byte(code)); err != nil {
		logx.Warn("Failed to archive solution", "room_id", roomID, "user", username, "error", err)
	}
}

func solutionKey(roomID uuid.UUID, username, language string) string {
	ext := archiveExtensions[language]
	if ext == "" {
		ext = ".txt"
	}
	return fmt.Sprintf("rooms/%s/solutions/%s%s", roomID, username, ext)
}

// SolutionURL returns a presigned download link for a finisher's archived
// solution, available once the battle reached a terminal state.
func (s *Service) SolutionURL(ctx context.Context, roomID uuid.UUID, username string) (string, *errs.CustomError) {
	if s.archive == nil {
		return "", errs.NewError(errs.ErrSolutionNotAvailable)
	}

	r, err := s.store.GetRoom(ctx, roomID)
	if err == store.ErrNotFound {
		return "", errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		logx.Error(err, "Failed to load room", "room_id", roomID)
		return "", errs.NewError(errs.ErrStorage)
	}
	if !r.IsTerminal() {
		return "", errs.NewError(errs.ErrSolutionNotAvailable)
	}

	for _, ext := range archiveExtensions {
		key := fmt.Sprintf("rooms/%s/solutions/%s%s", roomID, username, ext)
		exists, err := s.archive.Exists(ctx, key)
		if err != nil {
			return "", errs.NewError(errs.ErrArchiveFailed)
		}
		if !exists {
			continue
		}

		url, err := s.archive.PresignDownload(ctx, key, solutionURLTTL)
		if err != nil {
			return "", errs.NewError(errs.ErrArchiveFailed)
		}
		return url, nil
	}

	return "", errs.NewError(errs.ErrSolutionNotAvailable)
}

// QuestionDetail is the battle-view projection of a question.
type QuestionDetail struct {
	Question  *store.Question          `json:"question"`
	TestCases []*store.TestCase        `json:"testcases"`
	Examples  []*store.Example         `json:"example"`
	Signature *judge.FunctionSignature `json:"function_details"`
}

// QuestionDetail loads a question with its testcases, examples, and the
// function signature derived from the stored reference solution.
func (s *Service) QuestionDetail(ctx context.Context, questionID uuid.UUID) (*QuestionDetail, *errs.CustomError) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err == store.ErrNotFound {
		return nil, errs.NewError(errs.ErrQuestionNotFound)
	}
	if err != nil {
		logx.Error(err, "Failed to load question", "question_id", questionID)
		return nil, errs.NewError(errs.ErrStorage)
	}

	testcases, err := s.store.ListTestCases(ctx, questionID)
	if err != nil {
		logx.Error(err, "Failed to load testcases", "question_id", questionID)
		return nil, errs.NewError(errs.ErrStorage)
	}

	examples, err := s.store.ListExamples(ctx, questionID)
	if err != nil {
		logx.Error(err, "Failed to load examples", "question_id", questionID)
		return nil, errs.NewError(errs.ErrStorage)
	}

	signature := &judge.FunctionSignature{Params: []string{}}
	solution, err := s.store.GetSolvedCode(ctx, questionID, judge.LangPython)
	if err == nil {
		if extracted, err := judge.ExtractSignature(solution, judge.LangPython); err == nil {
			signature = extracted
		} else {
			logx.Warn("Failed to extract function signature", "question_id", questionID, "error", err)
		}
	}

	return &QuestionDetail{
		Question:  question,
		TestCases: testcases,
		Examples:  examples,
		Signature: signature,
	}, nil
}

// RankedEntry is one leaderboard row.
type RankedEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
}

// GlobalRankings returns the top rows of the active season's leaderboard.
func (s *Service) GlobalRankings(ctx context.Context, limit int) ([]RankedEntry, *errs.CustomError) {
	season, err := s.store.GetActiveSeason(ctx)
	if err == store.ErrNotFound {
		return []RankedEntry{}, nil
	}
	if err != nil {
		logx.Error(err, "Failed to load active season")
		return nil, errs.NewError(errs.ErrStorage)
	}

	rankings, err := s.store.ListTopRankings(ctx, season.ID, limit)
	if err != nil {
		logx.Error(err, "Failed to load rankings")
		return nil, errs.NewError(errs.ErrStorage)
	}

	entries := make([]RankedEntry, 0, len(rankings))
	for i, r := range rankings {
		entries = append(entries, RankedEntry{
			Rank:     i + 1,
			Username: r.Username,
			Rating:   r.Rating,
			Wins:     r.Wins,
			Losses:   r.Losses,
		})
	}
	return entries, nil
}

func mapJudgeError(err error) *errs.CustomError {
	switch {
	case errors.Is(err, judge.ErrUnsupportedLanguage):
		return errs.NewError(errs.ErrUnsupportedLanguage)
	case errors.Is(err, judge.ErrInputMalformed):
		return errs.NewError(errs.ErrInputMalformed, err.Error())
	case errors.Is(err, judge.ErrTimeout):
		return errs.NewError(errs.ErrJudgeTimeout)
	default:
		return errs.NewError(errs.ErrJudgeTransport)
	}
}
