package api

// CheckResponse is the response for a permission check.
type CheckResponse struct {
	PermissionID string `json:"permission_id" description:"Permission id that was checked"`
	Allowed      bool   `json:"allowed" description:"Whether the caller holds the permission"`
	Decision     string `json:"decision" description:"Decision code"`
	Reason       string `json:"reason,omitempty" description:"Human-readable reason"`
	EvalTimeNs   int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in request order"`
}

// EffectivePermissionsResponse is the caller's full permission map.
type EffectivePermissionsResponse struct {
	Permissions map[string]bool `json:"permissions" description:"Permission id to allowed state, plus general_access"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
