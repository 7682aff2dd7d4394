// Package grant defines the job-level permission grant record and its
// store interface.
//
// A grant means: every user whose job matches JobID holds, by default, the
// permission identified by the record's one non-nil id field. Grants are
// never updated in place — adding is create-if-absent, removing is
// delete-by-exact-tuple.
package grant

import (
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// Grant is a job permission document. Exactly one of the three id fields
// is non-nil; the other two are nil. A stored row violating that invariant
// is malformed and is skipped by readers, never surfaced.
type Grant struct {
	ID              id.GrantID `json:"id" db:"id"`
	JobID           int        `json:"job_id" db:"job_id"`
	ServiceID       *int       `json:"service_id" db:"service_id"`
	SubServiceID    *int       `json:"sub_service_id" db:"sub_service_id"`
	SubSubServiceID *int       `json:"sub_sub_service_id" db:"sub_sub_service_id"`
	CreatedBy       string     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// New builds a grant for the given job and permission ref.
func New(jobID int, ref permid.Ref, createdBy string) *Grant {
	f := ref.Fields()
	return &Grant{
		ID:              id.NewGrantID(),
		JobID:           jobID,
		ServiceID:       f.ServiceID,
		SubServiceID:    f.SubServiceID,
		SubSubServiceID: f.SubSubServiceID,
		CreatedBy:       createdBy,
	}
}

// Ref recovers the permission ref encoded in the record's id fields.
// ok is false for malformed rows.
func (g *Grant) Ref() (permid.Ref, bool) {
	return permid.FromFields(permid.Fields{
		ServiceID:       g.ServiceID,
		SubServiceID:    g.SubServiceID,
		SubSubServiceID: g.SubSubServiceID,
	})
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	JobID  *int         `json:"job_id,omitempty"`
	Level  permid.Level `json:"level,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}
