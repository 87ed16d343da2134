package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. Options are stored as a
// JSONB array of {text, is_correct} objects.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	if err := row.Scan(&q.ID, &q.TestID, &q.Text, &options, &q.OrderNum); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

// ListByTest retrieves all questions for a test, ordered by order_num.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, question, options, order_num
		 FROM questions WHERE test_id = $1
		 ORDER BY order_num`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, test_id, question, options, order_num
		 FROM questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// GetByIDs fetches the surviving questions among the given ids, keyed by id
// string. Ids that no longer resolve are simply absent from the map — this is
// the dangling-reference read path, not an error.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[string]*model.Question, error) {
	found := make(map[string]*model.Question, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, question, options, order_num
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		found[q.ID.String()] = q
	}
	return found, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (test_id, question, options, order_num)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		q.TestID, q.Text, options, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceForTest atomically replaces a test's question set.
func (r *QuestionRepository) ReplaceForTest(ctx context.Context, testID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE test_id = $1`, testID); err != nil {
		return err
	}

	for i := range questions {
		options, err := json.Marshal(questions[i].Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (test_id, question, options, order_num)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			testID, questions[i].Text, options, questions[i].OrderNum,
		).Scan(&questions[i].ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a single question. Historical results referencing it keep
// their dangling id; no cascade touches them.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
