// Package exception defines the per-user permission exception record and
// its store interface.
//
// An exception forces the effective permission for one exact (user, level,
// id) tuple to Allowed, regardless of any job grant. At most one exception
// exists per tuple — the store upserts and deletes by exact triple rather
// than appending.
package exception

import (
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// Exception is a user permission document. Exactly one of the three id
// fields is non-nil, same invariant as grant records.
type Exception struct {
	ID              id.ExceptionID `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	ServiceID       *int           `json:"service_id" db:"service_id"`
	SubServiceID    *int           `json:"sub_service_id" db:"sub_service_id"`
	SubSubServiceID *int           `json:"sub_sub_service_id" db:"sub_sub_service_id"`
	Allowed         bool           `json:"is_allowed" db:"is_allowed"`
	ManualException bool           `json:"is_manual_exception" db:"is_manual_exception"`
	CreatedBy       string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// New builds an exception for the given user and permission ref.
// ManualException is always true: the engine only ever writes manual
// overrides.
func New(userID string, ref permid.Ref, allowed bool, createdBy string) *Exception {
	f := ref.Fields()
	return &Exception{
		ID:              id.NewExceptionID(),
		UserID:          userID,
		ServiceID:       f.ServiceID,
		SubServiceID:    f.SubServiceID,
		SubSubServiceID: f.SubSubServiceID,
		Allowed:         allowed,
		ManualException: true,
		CreatedBy:       createdBy,
	}
}

// Ref recovers the permission ref encoded in the record's id fields.
// ok is false for malformed rows.
func (e *Exception) Ref() (permid.Ref, bool) {
	return permid.FromFields(permid.Fields{
		ServiceID:       e.ServiceID,
		SubServiceID:    e.SubServiceID,
		SubSubServiceID: e.SubSubServiceID,
	})
}

// ListFilter contains filters for listing exceptions.
type ListFilter struct {
	UserID  string       `json:"user_id,omitempty"`
	Level   permid.Level `json:"level,omitempty"`
	Allowed *bool        `json:"is_allowed,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	Offset  int          `json:"offset,omitempty"`
}
