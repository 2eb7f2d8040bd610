package store

import (
	"context"

	"github.com/google/uuid"
)

const questionColumns = `
	id, title, slug, description, difficulty, tags, is_validated,
	is_contributed, contribution_status, created_at`

func scanQuestion(row interface{ Scan(dest ...any) error }) (*Question, error) {
	var qu Question
	err := row.Scan(
		&qu.ID, &qu.Title, &qu.Slug, &qu.Description, &qu.Difficulty, &qu.Tags,
		&qu.IsValidated, &qu.IsContributed, &qu.ContributionStatus, &qu.CreatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qu, nil
}

// GetQuestion fetches a question by id.
func (q *Queries) GetQuestion(ctx context.Context, questionID uuid.UUID) (*Question, error) {
	return scanQuestion(q.db.QueryRow(ctx, `
		SELECT `+questionColumns+` FROM questions WHERE id = $1`, questionID))
}

// ListEligibleQuestions returns every question a battle may draw from for the
// given topic and difficulty: validated, and either original or a contribution
// that passed review.
func (q *Queries) ListEligibleQuestions(ctx context.Context, tags, difficulty string) ([]*Question, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE tags = $1 AND difficulty = $2 AND is_validated
		  AND (NOT is_contributed OR contribution_status = $3)`,
		tags, difficulty, ContributionAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		qu, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qu)
	}
	return questions, rows.Err()
}

// ListTestCases returns the ordered testcases of a question.
func (q *Queries) ListTestCases(ctx context.Context, questionID uuid.UUID) ([]*TestCase, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, question_id, input_data, expected_output, is_sample, ord
		FROM testcases
		WHERE question_id = $1
		ORDER BY ord, id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*TestCase
	for rows.Next() {
		var tc TestCase
		if err := rows.Scan(&tc.ID, &tc.QuestionID, &tc.InputData, &tc.ExpectedOutput, &tc.IsSample, &tc.Ord); err != nil {
			return nil, err
		}
		cases = append(cases, &tc)
	}
	return cases, rows.Err()
}

// ListExamples returns the worked examples attached to a question.
func (q *Queries) ListExamples(ctx context.Context, questionID uuid.UUID) ([]*Example, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, question_id, input_example, output_example, explanation
		FROM examples
		WHERE question_id = $1
		ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []*Example
	for rows.Next() {
		var e Example
		if err := rows.Scan(&e.ID, &e.QuestionID, &e.InputExample, &e.OutputExample, &e.Explanation); err != nil {
			return nil, err
		}
		examples = append(examples, &e)
	}
	return examples, rows.Err()
}

// GetSolvedCode returns the stored reference solution for a question in the
// given language, used to derive the function signature shown to clients.
func (q *Queries) GetSolvedCode(ctx context.Context, questionID uuid.UUID, language string) (string, error) {
	var code string
	err := q.db.QueryRow(ctx, `
		SELECT solution_code FROM solved_codes
		WHERE question_id = $1 AND language = $2
		ORDER BY created_at DESC
		LIMIT 1`, questionID, language).Scan(&code)
	if isNoRows(err) {
		return "", ErrNotFound
	}
	return code, err
}
