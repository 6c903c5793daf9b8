package ports

import (
	"context"
	"time"

	"collection-planning-service/internal/domain"
)

// Port: persistence boundary for planning output.
type AssignmentSink interface {
	// ReplaceAssignments atomically deletes all prior assignments whose
	// date falls in [from, to] and inserts the given ones. Re-planning
	// a range always replaces, never patches.
	ReplaceAssignments(ctx context.Context, from, to time.Time, assignments []domain.RouteAssignment) error
}

// Port: read side of the stored plan, for the HTTP API.
type AssignmentLister interface {
	ListAssignments(ctx context.Context, from, to time.Time) ([]domain.RouteAssignment, error)
}

// Port: operator-visible informational messages (run summaries,
// soft-failure warnings). Implementations must not fail the run.
type Notifier interface {
	PostMessage(ctx context.Context, text string)
}
