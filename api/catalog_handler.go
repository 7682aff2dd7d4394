package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
)

func (a *API) registerCatalogRoutes(router forge.Router) error {
	g := router.Group("/v1/catalog", forge.WithGroupTags("catalog"))

	if err := g.GET("/services", a.listServices,
		forge.WithSummary("List services"),
		forge.WithDescription("Lists the registered top-tier services."),
		forge.WithOperationID("listServices"),
		forge.WithResponseSchema(http.StatusOK, "Service list", []*catalog.Service{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/services", a.createService,
		forge.WithSummary("Register service"),
		forge.WithOperationID("createService"),
		forge.WithRequestSchema(CreateServiceRequest{}),
		forge.WithCreatedResponse(&catalog.Service{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/sub-services", a.listSubServices,
		forge.WithSummary("List sub-services"),
		forge.WithOperationID("listSubServices"),
		forge.WithResponseSchema(http.StatusOK, "Sub-service list", []*catalog.SubService{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/sub-services", a.createSubService,
		forge.WithSummary("Register sub-service"),
		forge.WithOperationID("createSubService"),
		forge.WithRequestSchema(CreateSubServiceRequest{}),
		forge.WithCreatedResponse(&catalog.SubService{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/sub-sub-services", a.listSubSubServices,
		forge.WithSummary("List sub-sub-services"),
		forge.WithOperationID("listSubSubServices"),
		forge.WithResponseSchema(http.StatusOK, "Sub-sub-service list", []*catalog.SubSubService{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/sub-sub-services", a.createSubSubService,
		forge.WithSummary("Register sub-sub-service"),
		forge.WithOperationID("createSubSubService"),
		forge.WithRequestSchema(CreateSubSubServiceRequest{}),
		forge.WithCreatedResponse(&catalog.SubSubService{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listServices(ctx forge.Context, _ *struct{}) ([]*catalog.Service, error) {
	services, err := a.eng.Store().ListServices(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	return services, ctx.JSON(http.StatusOK, services)
}

func (a *API) createService(ctx forge.Context, req *CreateServiceRequest) (*catalog.Service, error) {
	if req.ID <= 0 {
		return nil, forge.BadRequest("id must be a positive integer")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	svc := &catalog.Service{ID: req.ID, Name: req.Name}
	if err := a.eng.Store().CreateService(ctx.Context(), svc); err != nil {
		return nil, mapError(err)
	}
	return svc, ctx.JSON(http.StatusCreated, svc)
}

func (a *API) listSubServices(ctx forge.Context, _ *struct{}) ([]*catalog.SubService, error) {
	services, err := a.eng.Store().ListSubServices(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	return services, ctx.JSON(http.StatusOK, services)
}

func (a *API) createSubService(ctx forge.Context, req *CreateSubServiceRequest) (*catalog.SubService, error) {
	if req.ID <= 0 || req.ServiceID <= 0 {
		return nil, forge.BadRequest("id and service_id must be positive integers")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	svc := &catalog.SubService{ID: req.ID, ServiceID: req.ServiceID, Name: req.Name}
	if err := a.eng.Store().CreateSubService(ctx.Context(), svc); err != nil {
		return nil, mapError(err)
	}
	return svc, ctx.JSON(http.StatusCreated, svc)
}

func (a *API) listSubSubServices(ctx forge.Context, _ *struct{}) ([]*catalog.SubSubService, error) {
	services, err := a.eng.Store().ListSubSubServices(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	return services, ctx.JSON(http.StatusOK, services)
}

func (a *API) createSubSubService(ctx forge.Context, req *CreateSubSubServiceRequest) (*catalog.SubSubService, error) {
	if req.ID <= 0 || req.SubServiceID <= 0 {
		return nil, forge.BadRequest("id and sub_service_id must be positive integers")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	svc := &catalog.SubSubService{ID: req.ID, SubServiceID: req.SubServiceID, Name: req.Name}
	if err := a.eng.Store().CreateSubSubService(ctx.Context(), svc); err != nil {
		return nil, mapError(err)
	}
	return svc, ctx.JSON(http.StatusCreated, svc)
}
