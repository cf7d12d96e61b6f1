package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// FrameSample is one smoothed frame-rate reading.
type FrameSample struct {
	SampledAt  time.Time
	FrameRate  float64
	FixedSteps uint64
	GameTime   float64 // seconds
	Entities   int
}

// SessionSummary closes a session row.
type SessionSummary struct {
	FixedSteps uint64
	GameTime   float64
}

type TelemetryRepo struct {
	db *DB
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// StartSession inserts a session row and returns its id.
func (r *TelemetryRepo) StartSession(ctx context.Context, fixedStep time.Duration, maxFrameSkip int) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_session (fixed_step_ns, max_frame_skip) VALUES ($1, $2) RETURNING id`,
		int64(fixedStep), maxFrameSkip,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// WriteSamples bulk-inserts samples with COPY.
func (r *TelemetryRepo) WriteSamples(ctx context.Context, sessionID int64, samples []FrameSample) error {
	if len(samples) == 0 {
		return nil
	}
	rows := make([][]any, len(samples))
	for i, s := range samples {
		rows[i] = []any{sessionID, s.SampledAt, s.FrameRate, int64(s.FixedSteps), s.GameTime, s.Entities}
	}
	_, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"frame_sample"},
		[]string{"session_id", "sampled_at", "frame_rate", "fixed_steps", "game_time_s", "entities"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}

// EndSession stamps the session's end and totals.
func (r *TelemetryRepo) EndSession(ctx context.Context, sessionID int64, sum SessionSummary) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE sim_session SET ended_at = now(), fixed_steps = $2, game_time_s = $3 WHERE id = $1`,
		sessionID, int64(sum.FixedSteps), sum.GameTime,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
