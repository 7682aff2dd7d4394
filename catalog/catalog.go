// Package catalog defines the three-tier service catalog records.
//
// The catalogs supply the valid numeric ids at each level. The engine
// reads them only for super-admin enumeration; the create operations exist
// for seeding and for the portal's catalog administration screens.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is the sentinel for a missing catalog entry.
var ErrNotFound = errors.New("catalog: not found")

// Service is a top-level service ("s:<id>").
type Service struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubService is a second-level service ("ss:<id>") under a Service.
type SubService struct {
	ID        int       `json:"id" db:"id"`
	ServiceID int       `json:"service_id" db:"service_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubSubService is a third-level service ("sss:<id>") under a SubService.
type SubSubService struct {
	ID           int       `json:"id" db:"id"`
	SubServiceID int       `json:"sub_service_id" db:"sub_service_id"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Store defines persistence operations for the service catalogs.
type Store interface {
	// ListServices returns all services ordered by id.
	ListServices(ctx context.Context) ([]*Service, error)

	// ListSubServices returns all sub-services ordered by id.
	ListSubServices(ctx context.Context) ([]*SubService, error)

	// ListSubSubServices returns all sub-sub-services ordered by id.
	ListSubSubServices(ctx context.Context) ([]*SubSubService, error)

	// CreateService persists a new service.
	CreateService(ctx context.Context, s *Service) error

	// CreateSubService persists a new sub-service.
	CreateSubService(ctx context.Context, s *SubService) error

	// CreateSubSubService persists a new sub-sub-service.
	CreateSubSubService(ctx context.Context, s *SubSubService) error
}
