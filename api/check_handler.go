package api

import (
	"net/http"
	"strings"

	"github.com/xraph/forge"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/permissions", forge.WithGroupTags("permissions"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Permission check"),
		forge.WithDescription("Evaluates whether the caller holds the given permission id."),
		forge.WithOperationID("permissionCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch permission check"),
		forge.WithDescription("Evaluates multiple permission ids in one request."),
		forge.WithOperationID("permissionBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/effective", a.effectivePermissions,
		forge.WithSummary("Effective permissions"),
		forge.WithDescription("Returns the caller's full permission map for UI bootstrapping."),
		forge.WithOperationID("effectivePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permission map", EffectivePermissionsResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if strings.TrimSpace(req.PermissionID) == "" {
		return nil, forge.BadRequest("permission_id is required")
	}

	result, err := a.eng.Check(ctx.Context(), req.PermissionID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(req.PermissionID, result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.PermissionIDs) == 0 {
		return nil, forge.BadRequest("permission_ids cannot be empty")
	}

	results := make([]CheckResponse, len(req.PermissionIDs))
	for i, pid := range req.PermissionIDs {
		result, err := a.eng.Check(ctx.Context(), pid)
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(pid, result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) effectivePermissions(ctx forge.Context, _ *struct{}) (*EffectivePermissionsResponse, error) {
	perms, err := a.eng.EffectivePermissions(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	resp := &EffectivePermissionsResponse{Permissions: perms}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toCheckResponse(permissionID string, r *authz.CheckResult) *CheckResponse {
	return &CheckResponse{
		PermissionID: permissionID,
		Allowed:      r.Allowed,
		Decision:     string(r.Decision),
		Reason:       r.Reason,
		EvalTimeNs:   r.EvalTimeNs,
	}
}
