package api

import (
	"net/http"

	"github.com/xraph/forge"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

func (a *API) registerExceptionRoutes(router forge.Router) error {
	g := router.Group("/v1/permissions", forge.WithGroupTags("user-exceptions"))

	if err := g.PUT("/users/:userId", a.manageUserExceptions,
		forge.WithSummary("Manage user exceptions"),
		forge.WithDescription("Reconciles per-user overrides against the user's job grants. Entries that match the job state delete any stale override instead."),
		forge.WithOperationID("manageUserExceptions"),
		forge.WithRequestSchema(ManageUserExceptionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Change summary", authz.ExceptionChange{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId", a.listUserExceptions,
		forge.WithSummary("List user exceptions"),
		forge.WithDescription("Lists the manual overrides of one user."),
		forge.WithOperationID("listUserExceptions"),
		forge.WithRequestSchema(ListUserExceptionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Exception list", ListResponse[*exception.Exception]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) manageUserExceptions(ctx forge.Context, req *ManageUserExceptionsRequest) (*authz.ExceptionChange, error) {
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	// Empty batches are valid and yield a zero change summary.
	change, err := a.eng.ManageUserExceptions(ctx.Context(), userID, req.Entries)
	if err != nil {
		return nil, mapError(err)
	}

	return change, ctx.JSON(http.StatusOK, change)
}

func (a *API) listUserExceptions(ctx forge.Context, req *ListUserExceptionsRequest) (*ListResponse[*exception.Exception], error) {
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	allowed, err := parseBoolFilter(req.Allowed)
	if err != nil {
		return nil, forge.BadRequest("invalid allowed filter")
	}

	filter := &exception.ListFilter{
		UserID:  userID,
		Level:   permid.Level(req.Level),
		Allowed: allowed,
		Limit:   defaultLimit(req.Limit),
		Offset:  req.Offset,
	}

	exceptions, err := a.eng.Store().ListExceptions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountExceptions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*exception.Exception]{
		Items:  exceptions,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
