package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
)

func (a *API) registerDecisionLogRoutes(router forge.Router) error {
	g := router.Group("/v1/permissions", forge.WithGroupTags("decision-logs"))

	return g.GET("/decisions", a.listDecisions,
		forge.WithSummary("Query decision logs"),
		forge.WithDescription("Returns permission check audit entries with optional filters."),
		forge.WithOperationID("listDecisions"),
		forge.WithRequestSchema(ListDecisionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision log list", []*decisionlog.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listDecisions(ctx forge.Context, req *ListDecisionsRequest) ([]*decisionlog.Entry, error) {
	allowed, err := parseBoolFilter(req.Allowed)
	if err != nil {
		return nil, forge.BadRequest("invalid allowed filter")
	}

	filter := &decisionlog.QueryFilter{
		CallerID:     req.CallerID,
		PermissionID: req.PermissionID,
		Decision:     req.Decision,
		Allowed:      allowed,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	entries, err := a.eng.Store().QueryDecisions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, ctx.JSON(http.StatusOK, entries)
}
