// Package decisionlog defines the permission decision audit record.
//
// Every permission check the engine evaluates is recorded best-effort: a
// failed audit write never fails the check itself.
package decisionlog

import (
	"context"
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
)

// Entry is a single permission decision audit record.
type Entry struct {
	ID           id.DecisionID `json:"id" db:"id"`
	CallerID     string        `json:"caller_id" db:"caller_id"`
	PermissionID string        `json:"permission_id" db:"permission_id"`
	Allowed      bool          `json:"allowed" db:"allowed"`
	Decision     string        `json:"decision" db:"decision"`
	Reason       string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs   int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision log entries.
type QueryFilter struct {
	CallerID     string     `json:"caller_id,omitempty"`
	PermissionID string     `json:"permission_id,omitempty"`
	Decision     string     `json:"decision,omitempty"`
	Allowed      *bool      `json:"allowed,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// Store defines persistence operations for the decision audit log.
type Store interface {
	// AppendDecision persists a new audit entry.
	AppendDecision(ctx context.Context, e *Entry) error

	// QueryDecisions returns entries matching the filter, newest first.
	QueryDecisions(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountDecisions returns the number of entries matching the filter.
	CountDecisions(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeDecisionsBefore removes entries created before the cutoff and
	// reports how many were removed.
	PurgeDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
