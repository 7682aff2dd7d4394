package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/xraph/forge"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1/permissions", forge.WithGroupTags("job-grants"))

	if err := g.PUT("/jobs/:jobId", a.manageJobGrants,
		forge.WithSummary("Manage job grants"),
		forge.WithDescription("Removes then adds permission grants for one job. Idempotent per entry."),
		forge.WithOperationID("manageJobGrants"),
		forge.WithRequestSchema(ManageJobGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Change summary", authz.GrantChange{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/jobs/:jobId", a.listJobGrants,
		forge.WithSummary("List job grants"),
		forge.WithDescription("Lists the permission grants of one job."),
		forge.WithOperationID("listJobGrants"),
		forge.WithRequestSchema(ListJobGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", ListResponse[*grant.Grant]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) manageJobGrants(ctx forge.Context, req *ManageJobGrantsRequest) (*authz.GrantChange, error) {
	jobID, err := parseJobID(ctx)
	if err != nil {
		return nil, err
	}

	// Empty batches are valid and yield a zero change summary.
	change, err := a.eng.ManageJobGrants(ctx.Context(), jobID, req.Add, req.Remove)
	if err != nil {
		return nil, mapError(err)
	}

	return change, ctx.JSON(http.StatusOK, change)
}

func (a *API) listJobGrants(ctx forge.Context, req *ListJobGrantsRequest) (*ListResponse[*grant.Grant], error) {
	jobID, err := parseJobID(ctx)
	if err != nil {
		return nil, err
	}

	filter := &grant.ListFilter{
		JobID:  &jobID,
		Level:  permid.Level(req.Level),
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*grant.Grant]{
		Items:  grants,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func parseJobID(ctx forge.Context) (int, error) {
	jobID, err := strconv.Atoi(ctx.Param("jobId"))
	if err != nil {
		return 0, forge.BadRequest(fmt.Sprintf("invalid job ID: %v", err))
	}
	return jobID, nil
}
