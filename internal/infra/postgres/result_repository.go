package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"playtesting-bot/internal/domain"
)

// ResultRepository is the Postgres system of record for playtest results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) InsertBuzz(ctx context.Context, b domain.BuzzResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO buzz (server_id, question_id, author_id, user_id, clue_index, characters_revealed, value, answer_given)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ServerID, b.QuestionID, b.AuthorID, b.UserID, b.ClueIndex, b.CharactersRevealed, b.Value, b.Note)
	if err != nil {
		return fmt.Errorf("insert buzz: %w", err)
	}
	return nil
}

// InsertBonusParts writes every part in one transaction.
func (r *ResultRepository) InsertBonusParts(ctx context.Context, results []domain.BonusPartResult) error {
	return r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, p := range results {
			_, err := tx.Exec(ctx, `
				INSERT INTO bonus_direct (server_id, question_id, author_id, user_id, part, value, answer_given)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ServerID, p.QuestionID, p.AuthorID, p.UserID, p.Part, p.Value, p.Note)
			if err != nil {
				return fmt.Errorf("insert bonus part %d: %w", p.Part, err)
			}
		}
		return nil
	})
}

func (r *ResultRepository) TossupBuzzes(ctx context.Context, questionID string) ([]domain.Buzz, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT clue_index, value, characters_revealed
		FROM buzz
		WHERE question_id = $1
		ORDER BY clue_index, id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("query buzzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Buzz, 0)
	for rows.Next() {
		var b domain.Buzz
		if err := rows.Scan(&b.ClueIndex, &b.Value, &b.CharactersRevealed); err != nil {
			return nil, fmt.Errorf("scan buzz: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ResultRepository) BonusOutcomes(ctx context.Context, questionID string) ([]domain.BonusOutcome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.user_id, d.part, d.value, COALESCE(p.difficulty, '')
		FROM bonus_direct d
		LEFT JOIN bonus_part p ON p.question_id = d.question_id AND p.part = d.part
		WHERE d.question_id = $1
		ORDER BY d.id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("query bonus results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BonusOutcome, 0)
	for rows.Next() {
		var o domain.BonusOutcome
		if err := rows.Scan(&o.UserID, &o.Part, &o.Value, &o.Difficulty); err != nil {
			return nil, fmt.Errorf("scan bonus result: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *ResultRepository) ServerResults(ctx context.Context, serverID string) (domain.ResultExport, error) {
	var export domain.ResultExport

	rows, err := r.pool.Query(ctx, `
		SELECT question_id, author_id, user_id, clue_index, characters_revealed, value, answer_given
		FROM buzz WHERE server_id = $1 ORDER BY id`, serverID)
	if err != nil {
		return export, fmt.Errorf("query buzzes: %w", err)
	}
	for rows.Next() {
		b := domain.BuzzResult{ServerID: serverID}
		if err := rows.Scan(&b.QuestionID, &b.AuthorID, &b.UserID, &b.ClueIndex, &b.CharactersRevealed, &b.Value, &b.Note); err != nil {
			rows.Close()
			return export, fmt.Errorf("scan buzz: %w", err)
		}
		export.Buzzes = append(export.Buzzes, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return export, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT question_id, author_id, user_id, part, value, answer_given
		FROM bonus_direct WHERE server_id = $1 ORDER BY id`, serverID)
	if err != nil {
		return export, fmt.Errorf("query bonus results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := domain.BonusPartResult{ServerID: serverID}
		if err := rows.Scan(&p.QuestionID, &p.AuthorID, &p.UserID, &p.Part, &p.Value, &p.Note); err != nil {
			return export, fmt.Errorf("scan bonus result: %w", err)
		}
		export.BonusParts = append(export.BonusParts, p)
	}
	return export, rows.Err()
}
