package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"playtesting-bot/internal/domain"
)

// QuestionRepository registers questions and tracks their results threads.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) RegisterTossup(ctx context.Context, t domain.TossupRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tossup (question_id, server_id, author_id, total_characters, category, answer)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (question_id) DO NOTHING`,
		t.QuestionID, t.ServerID, t.AuthorID, t.TotalCharacters, t.Category, t.Answer)
	if err != nil {
		return fmt.Errorf("insert tossup: %w", err)
	}
	return nil
}

func (r *QuestionRepository) RegisterBonus(ctx context.Context, b domain.BonusRecord) error {
	return r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bonus (question_id, server_id, author_id, category)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (question_id) DO NOTHING`,
			b.QuestionID, b.ServerID, b.AuthorID, b.Category)
		if err != nil {
			return fmt.Errorf("insert bonus: %w", err)
		}
		for _, p := range b.Parts {
			_, err := tx.Exec(ctx, `
				INSERT INTO bonus_part (question_id, part, difficulty, answer)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (question_id, part) DO NOTHING`,
				b.QuestionID, p.Part, p.Difficulty, p.Answer)
			if err != nil {
				return fmt.Errorf("insert bonus part %d: %w", p.Part, err)
			}
		}
		return nil
	})
}

func (r *QuestionRepository) ResultsThread(ctx context.Context, kind domain.QuestionKind, questionID string) (domain.ResultsThread, error) {
	var t domain.ResultsThread
	err := r.pool.QueryRow(ctx,
		`SELECT thread_id, summary_message_id FROM `+table(kind)+` WHERE question_id = $1`, questionID).
		Scan(&t.ThreadID, &t.SummaryMessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ResultsThread{}, nil
	}
	if err != nil {
		return domain.ResultsThread{}, fmt.Errorf("load results thread: %w", err)
	}
	return t, nil
}

func (r *QuestionRepository) SaveResultsThread(ctx context.Context, kind domain.QuestionKind, questionID string, t domain.ResultsThread) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE `+table(kind)+` SET thread_id = $2, summary_message_id = $3 WHERE question_id = $1`,
		questionID, t.ThreadID, t.SummaryMessageID)
	if err != nil {
		return fmt.Errorf("save results thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save results thread for %s %s: %w", kind, questionID, domain.ErrNotFound)
	}
	return nil
}

func table(kind domain.QuestionKind) string {
	if kind == domain.KindBonus {
		return "bonus"
	}
	return "tossup"
}
