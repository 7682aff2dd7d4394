// Package authz implements the permission resolution and management engine
// for the SSD operations portal.
//
// Permissions address a three-tier service hierarchy (service,
// sub-service, sub-sub-service; see package permid) and resolve from two
// sources: job-level grants shared by every user of a job, and per-user
// manual exceptions that override any grant. Super admins bypass
// resolution entirely.
//
//	eng, err := authz.NewEngine(
//	    authz.WithStore(memStore),
//	)
//	result, err := eng.Check(authz.WithCaller(ctx, "uid-123"), "s:1")
package authz

import (
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// CheckResult is the outcome of a permission check.
type CheckResult struct {
	Allowed    bool     `json:"allowed"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason,omitempty"`
	EvalTimeNs int64    `json:"eval_time_ns"`
}

// Decision is the resolution outcome code.
type Decision string

const (
	// DecisionAllowSuperAdmin means the caller is a super admin and
	// bypassed resolution.
	DecisionAllowSuperAdmin Decision = "allow_super_admin"

	// DecisionAllowException means an allow exception matched the tuple.
	DecisionAllowException Decision = "allow_exception"

	// DecisionDenyException means a deny exception matched the tuple.
	DecisionDenyException Decision = "deny_exception"

	// DecisionAllowGrant means the caller's job grants the permission.
	DecisionAllowGrant Decision = "allow_job_grant"

	// DecisionDenyMalformed means the permission id did not parse.
	// Malformed ids resolve to a denial, never an error.
	DecisionDenyMalformed Decision = "deny_malformed_id"

	// DecisionDenyNoGrant means neither an exception nor a job grant
	// covers the tuple.
	DecisionDenyNoGrant Decision = "deny_no_grant"
)

// GeneralAccessKey is always present and true in an effective permission
// set for any authenticated, existing user.
const GeneralAccessKey = "general_access"

// ExceptionEntry is one requested per-user override in a
// ManageUserExceptions call. Exactly one of the three id fields must be
// non-nil; entries violating that shape are skipped, matching the
// engine-wide malformed-input policy.
type ExceptionEntry struct {
	ServiceID       *int `json:"service_id"`
	SubServiceID    *int `json:"sub_service_id"`
	SubSubServiceID *int `json:"sub_sub_service_id"`
	Allowed         bool `json:"is_allowed"`
}

func (e ExceptionEntry) ref() (permid.Ref, bool) {
	return permid.FromFields(permid.Fields{
		ServiceID:       e.ServiceID,
		SubServiceID:    e.SubServiceID,
		SubSubServiceID: e.SubSubServiceID,
	})
}

// GrantChange summarizes a ManageJobGrants call. Skipped counts both
// unparsable entries and add entries whose tuple already existed.
type GrantChange struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

// ExceptionChange summarizes a ManageUserExceptions call.
type ExceptionChange struct {
	Upserted int `json:"upserted"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
}
