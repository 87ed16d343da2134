package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles result data access. Results are write-once: there
// is no update path, and deletion happens only when the owning student
// account is removed.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func scanResult(row interface{ Scan(...any) error }) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	err := row.Scan(&res.ID, &res.StudentID, &res.TestID, &res.Score, &res.TotalQuestions,
		&res.CorrectAnswers, &res.WrongAnswers, &answers, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return res, nil
}

// Create persists a freshly scored result.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO results (student_id, test_id, score, total_questions, correct_answers, wrong_answers, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		res.StudentID, res.TestID, res.Score, res.TotalQuestions,
		res.CorrectAnswers, res.WrongAnswers, answers,
	).Scan(&res.ID, &res.CreatedAt)
}

// GetByID retrieves a single result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT id, student_id, test_id, score, total_questions, correct_answers, wrong_answers, answers, created_at
		 FROM results WHERE id = $1`, id))
}

// ListByStudent retrieves a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, test_id, score, total_questions, correct_answers, wrong_answers, answers, created_at
		 FROM results WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// ListByTestPaginated retrieves results for a test, with total count, for the
// admin report view.
func (r *ResultRepository) ListByTestPaginated(ctx context.Context, testID uuid.UUID, limit, offset int) ([]model.Result, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE test_id = $1`, testID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, test_id, score, total_questions, correct_answers, wrong_answers, answers, created_at
		 FROM results WHERE test_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, testID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *res)
	}
	return results, total, rows.Err()
}

// DeleteByStudent removes all of a student's results. This is the only
// intentional cascade in the system and is invoked explicitly when the
// account is deleted, never as a DB-level side effect.
func (r *ResultRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM results WHERE student_id = $1`, studentID)
	return err
}
