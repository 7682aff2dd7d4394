package api

import (
	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
)

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for a permission check.
type CheckRequest struct {
	PermissionID string `json:"permission_id" description:"Permission id (s:<n>, ss:<n>, or sss:<n>)"`
}

// BatchCheckRequest contains multiple permission ids to check.
type BatchCheckRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Permission ids to evaluate in order"`
}

// ──────────────────────────────────────────────────
// Job grant requests
// ──────────────────────────────────────────────────

// ManageJobGrantsRequest is the body for reconciling one job's grants.
type ManageJobGrantsRequest struct {
	Add    []string `json:"add,omitempty" description:"Permission ids to grant"`
	Remove []string `json:"remove,omitempty" description:"Permission ids to revoke"`
}

// ListJobGrantsRequest holds query parameters for listing a job's grants.
type ListJobGrantsRequest struct {
	Level  string `query:"level" description:"Filter by tier (service, sub_service, sub_sub_service)"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// User exception requests
// ──────────────────────────────────────────────────

// ManageUserExceptionsRequest is the body for reconciling one user's
// overrides.
type ManageUserExceptionsRequest struct {
	Entries []authz.ExceptionEntry `json:"entries" description:"Requested override states"`
}

// ListUserExceptionsRequest holds query parameters for listing a user's
// exceptions.
type ListUserExceptionsRequest struct {
	Level   string `query:"level" description:"Filter by tier"`
	Allowed string `query:"allowed" description:"Filter by direction (true or false)"`
	Limit   int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Catalog requests
// ──────────────────────────────────────────────────

// CreateServiceRequest is the body for registering a service.
type CreateServiceRequest struct {
	ID   int    `json:"id" description:"Numeric service id"`
	Name string `json:"name" description:"Service name"`
}

// CreateSubServiceRequest is the body for registering a sub-service.
type CreateSubServiceRequest struct {
	ID        int    `json:"id" description:"Numeric sub-service id"`
	ServiceID int    `json:"service_id" description:"Parent service id"`
	Name      string `json:"name" description:"Sub-service name"`
}

// CreateSubSubServiceRequest is the body for registering a sub-sub-service.
type CreateSubSubServiceRequest struct {
	ID           int    `json:"id" description:"Numeric sub-sub-service id"`
	SubServiceID int    `json:"sub_service_id" description:"Parent sub-service id"`
	Name         string `json:"name" description:"Sub-sub-service name"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionsRequest holds query parameters for the decision audit log.
type ListDecisionsRequest struct {
	CallerID     string `query:"caller_id" description:"Filter by caller"`
	PermissionID string `query:"permission_id" description:"Filter by permission id"`
	Decision     string `query:"decision" description:"Filter by decision code"`
	Allowed      string `query:"allowed" description:"Filter by outcome (true or false)"`
	After        string `query:"after" description:"Entries after this time (RFC3339)"`
	Before       string `query:"before" description:"Entries before this time (RFC3339)"`
	Limit        int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset       int    `query:"offset" description:"Results to skip"`
}
