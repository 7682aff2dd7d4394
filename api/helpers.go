package api

import (
	"errors"
	"strconv"

	"github.com/xraph/forge"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrManagementDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, authz.ErrUserNotFound) ||
		errors.Is(err, directory.ErrUserNotFound) ||
		errors.Is(err, grant.ErrNotFound) ||
		errors.Is(err, exception.ErrNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// parseBoolFilter turns an optional "true"/"false" query value into a
// tri-state filter.
func parseBoolFilter(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
