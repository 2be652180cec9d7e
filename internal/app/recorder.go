package app

import (
	"context"
	"fmt"

	"playtesting-bot/internal/domain"
)

// Recorder appends scored outcomes to the result repository. Notes are sealed
// before they leave the process. Failures are returned, never swallowed.
type Recorder struct {
	results ResultRepository
	sealer  Sealer
}

func NewRecorder(results ResultRepository, sealer Sealer) *Recorder {
	return &Recorder{results: results, sealer: sealer}
}

// RecordBuzz writes exactly one tossup row.
func (r *Recorder) RecordBuzz(ctx context.Context, result domain.BuzzResult) error {
	note, err := r.seal(result.ServerID, result.Note)
	if err != nil {
		return fmt.Errorf("record buzz: %w", err)
	}
	result.Note = note
	if err := r.results.InsertBuzz(ctx, result); err != nil {
		return fmt.Errorf("record buzz: %w", err)
	}
	return nil
}

// RecordBonus writes one row per part, in part order.
func (r *Recorder) RecordBonus(ctx context.Context, parts []domain.BonusPartResult) error {
	sealed := make([]domain.BonusPartResult, len(parts))
	for i, p := range parts {
		note, err := r.seal(p.ServerID, p.Note)
		if err != nil {
			return fmt.Errorf("record bonus part %d: %w", p.Part, err)
		}
		p.Note = note
		sealed[i] = p
	}
	if err := r.results.InsertBonusParts(ctx, sealed); err != nil {
		return fmt.Errorf("record bonus: %w", err)
	}
	return nil
}

func (r *Recorder) seal(serverID, note string) (string, error) {
	if note == "" {
		return "", nil
	}
	return r.sealer.Seal(serverID, note)
}
