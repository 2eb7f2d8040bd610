/*
Package handler provides the HTTP handlers and routing setup for the arena server.

This file holds the battle endpoints: question detail, submission
verification, global rankings, and archived solution downloads.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/req"
	"bitarena/internal/pkg/resp"
)

// globalRankingLimit caps the leaderboard response.
const globalRankingLimit = 100

// HandleBattleQuestion returns a question with its testcases, examples, and
// the derived function signature.
func HandleBattleQuestion(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, err := uuid.Parse(chi.URLParam(r, "qid"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		detail, customErr := deps.Battles.QuestionDetail(r.Context(), questionID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, detail)
	}
}

// VerifyInput is the submission body.
type VerifyInput struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	RoomID   string `json:"room_id"`
}

// HandleVerify runs a submission through the pipeline: judge the code and,
// on success, assign the finishing position.
func HandleVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		questionID, err := uuid.Parse(chi.URLParam(r, "qid"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input VerifyInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if input.Code == "" || input.Language == "" || input.RoomID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		roomID, err := uuid.Parse(input.RoomID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		result, customErr := deps.Battles.Submit(r.Context(), caller, roomID, questionID, input.Code, input.Language)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, result)
	}
}

// HandleGlobalRankings returns the active season's top 100 by rating.
func HandleGlobalRankings(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rankings, customErr := deps.Battles.GlobalRankings(r.Context(), globalRankingLimit)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"rankings": rankings})
	}
}

// HandleSolutionDownload returns a presigned URL for a finisher's archived
// solution once the battle is over.
func HandleSolutionDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		username := chi.URLParam(r, "username")
		if username == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, customErr := deps.Battles.SolutionURL(r.Context(), roomID, username)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"download_url": url})
	}
}
