package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RunIDKey carries the planning run identifier through a run's context
// so that every timed operation can be correlated to its run.
const RunIDKey ctxKey = "run_id"

// WithRunID attaches a planning run identifier to a context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	runID, _ := ctx.Value(RunIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("run_id=%s op=%s dur=%dms err=%v", runID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("run_id=%s op=%s dur=%dms", runID, name, dur.Milliseconds())
	}
}
