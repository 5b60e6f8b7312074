// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/dialcoach/dialcoach/internal/domain"
)

// CallStore persists completed training calls and their coaching scorecards
// for the dashboard.
type CallStore interface {
	// SaveCall inserts or replaces the record for a completed call.
	SaveCall(ctx context.Context, rec *domain.CallRecord) error

	// GetCall retrieves one record by call ID. Returns (nil, nil) when absent.
	GetCall(ctx context.Context, callID string) (*domain.CallRecord, error)

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.CallRecord, error)

	// AttachAnalysis stores the coaching scorecard JSON for a call.
	AttachAnalysis(ctx context.Context, callID, analysisJSON string) error

	// DeleteBefore removes records that ended before cutoff and reports how
	// many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
