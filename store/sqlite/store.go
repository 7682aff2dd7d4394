// Package sqlite provides a SQLite implementation of the composite
// permission store, suited to single-node and embedded deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite permission store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("authz/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("authz/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// levelColumn maps a hierarchy tier onto its non-null column, used to
// narrow list/count queries to one tier.
func levelColumn(level permid.Level) (string, bool) {
	switch level {
	case permid.LevelService:
		return "service_id IS NOT NULL", true
	case permid.LevelSubService:
		return "sub_service_id IS NOT NULL", true
	case permid.LevelSubSubService:
		return "sub_sub_service_id IS NOT NULL", true
	}
	return "", false
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	g.CreatedAt = time.Now().UTC()
	m := grantToModel(g)
	// ON CONFLICT DO NOTHING: the existing tuple wins.
	_, err := s.sdb.NewInsert(m).
		OnConflict("DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, jobID int, ref permid.Ref) (*grant.Grant, error) {
	f := ref.Fields()
	m := new(grantModel)
	err := s.sdb.NewSelect(m).
		Where("job_id = ?", jobID).
		Where("service_id IS ?", f.ServiceID).
		Where("sub_service_id IS ?", f.SubServiceID).
		Where("sub_sub_service_id IS ?", f.SubSubServiceID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant job=%d %s: %w", jobID, ref, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("authz: get grant: %w", err)
	}
	return grantFromModel(m), nil
}

func (s *Store) ListGrantsByJob(ctx context.Context, jobID int) ([]*grant.Grant, error) {
	return s.ListGrants(ctx, &grant.ListFilter{JobID: &jobID})
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.JobID != nil {
			q = q.Where("job_id = ?", *filter.JobID)
		}
		if cond, ok := levelColumn(filter.Level); ok {
			q = q.Where(cond)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.JobID != nil {
			q = q.Where("job_id = ?", *filter.JobID)
		}
		if cond, ok := levelColumn(filter.Level); ok {
			q = q.Where(cond)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrant(ctx context.Context, jobID int, ref permid.Ref) (int64, error) {
	f := ref.Fields()
	res, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("job_id = ?", jobID).
		Where("service_id IS ?", f.ServiceID).
		Where("sub_service_id IS ?", f.SubServiceID).
		Where("sub_sub_service_id IS ?", f.SubSubServiceID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: delete grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("authz: delete grant rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteGrantsByJob(ctx context.Context, jobID int) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("job_id = ?", jobID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: delete grants by job: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Exception operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertException(ctx context.Context, e *exception.Exception) error {
	ref, ok := e.Ref()
	if !ok {
		return fmt.Errorf("authz: upsert exception: malformed tuple")
	}
	f := ref.Fields()

	// Find-then-write keeps the original row identity on update. The
	// unique tuple index settles racing inserts; the loser retries as an
	// update.
	for attempt := 0; attempt < 2; attempt++ {
		existing := new(exceptionModel)
		err := s.sdb.NewSelect(existing).
			Where("user_id = ?", e.UserID).
			Where("service_id IS ?", f.ServiceID).
			Where("sub_service_id IS ?", f.SubServiceID).
			Where("sub_sub_service_id IS ?", f.SubSubServiceID).
			Scan(ctx)
		switch {
		case err == nil:
			m := exceptionToModel(e)
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			m.UpdatedAt = time.Now().UTC()
			if _, uerr := s.sdb.NewUpdate(m).WherePK().Exec(ctx); uerr != nil {
				return fmt.Errorf("authz: update exception: %w", uerr)
			}
			return nil
		case isNoRows(err):
			t := time.Now().UTC()
			e.CreatedAt = t
			e.UpdatedAt = t
			m := exceptionToModel(e)
			res, ierr := s.sdb.NewInsert(m).
				OnConflict("DO NOTHING").
				Exec(ctx)
			if ierr != nil {
				return fmt.Errorf("authz: insert exception: %w", ierr)
			}
			n, aerr := res.RowsAffected()
			if aerr != nil {
				return fmt.Errorf("authz: insert exception rows: %w", aerr)
			}
			if n == 0 {
				continue // concurrent insert won, update it instead
			}
			return nil
		default:
			return fmt.Errorf("authz: upsert exception: %w", err)
		}
	}
	return fmt.Errorf("authz: upsert exception: concurrent writes did not settle")
}

func (s *Store) GetException(ctx context.Context, userID string, ref permid.Ref) (*exception.Exception, error) {
	f := ref.Fields()
	m := new(exceptionModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("service_id IS ?", f.ServiceID).
		Where("sub_service_id IS ?", f.SubServiceID).
		Where("sub_sub_service_id IS ?", f.SubSubServiceID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("exception user=%s %s: %w", userID, ref, exception.ErrNotFound)
		}
		return nil, fmt.Errorf("authz: get exception: %w", err)
	}
	return exceptionFromModel(m), nil
}

func (s *Store) ListExceptionsByUser(ctx context.Context, userID string) ([]*exception.Exception, error) {
	return s.ListExceptions(ctx, &exception.ListFilter{UserID: userID})
}

func (s *Store) ListExceptions(ctx context.Context, filter *exception.ListFilter) ([]*exception.Exception, error) {
	var models []exceptionModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Allowed != nil {
			q = q.Where("is_allowed = ?", *filter.Allowed)
		}
		if cond, ok := levelColumn(filter.Level); ok {
			q = q.Where(cond)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list exceptions: %w", err)
	}
	result := make([]*exception.Exception, len(models))
	for i := range models {
		result[i] = exceptionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountExceptions(ctx context.Context, filter *exception.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*exceptionModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Allowed != nil {
			q = q.Where("is_allowed = ?", *filter.Allowed)
		}
		if cond, ok := levelColumn(filter.Level); ok {
			q = q.Where(cond)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count exceptions: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteException(ctx context.Context, userID string, ref permid.Ref) (int64, error) {
	f := ref.Fields()
	res, err := s.sdb.NewDelete((*exceptionModel)(nil)).
		Where("user_id = ?", userID).
		Where("service_id IS ?", f.ServiceID).
		Where("sub_service_id IS ?", f.SubServiceID).
		Where("sub_sub_service_id IS ?", f.SubSubServiceID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: delete exception: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("authz: delete exception rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteExceptionsByUser(ctx context.Context, userID string) error {
	_, err := s.sdb.NewDelete((*exceptionModel)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: delete exceptions by user: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) GetUser(ctx context.Context, uid string) (*directory.User, error) {
	m := new(userModel)
	err := s.sdb.NewSelect(m).Where("id = ?", uid).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", uid, directory.ErrUserNotFound)
		}
		return nil, fmt.Errorf("authz: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) CreateUser(ctx context.Context, u *directory.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m := userToModel(u)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *directory.User) error {
	u.UpdatedAt = time.Now().UTC()
	m := userToModel(u)
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("authz: update user rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", u.ID, directory.ErrUserNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	_, err := s.sdb.NewDelete((*userModel)(nil)).
		Where("id = ?", uid).Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: delete user: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Catalog operations
// ──────────────────────────────────────────────────

func (s *Store) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	var models []serviceModel
	if err := s.sdb.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list services: %w", err)
	}
	result := make([]*catalog.Service, len(models))
	for i := range models {
		result[i] = serviceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListSubServices(ctx context.Context) ([]*catalog.SubService, error) {
	var models []subServiceModel
	if err := s.sdb.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list sub-services: %w", err)
	}
	result := make([]*catalog.SubService, len(models))
	for i := range models {
		result[i] = subServiceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListSubSubServices(ctx context.Context) ([]*catalog.SubSubService, error) {
	var models []subSubServiceModel
	if err := s.sdb.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list sub-sub-services: %w", err)
	}
	result := make([]*catalog.SubSubService, len(models))
	for i := range models {
		result[i] = subSubServiceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	svc.CreatedAt = time.Now().UTC()
	m := &serviceModel{ID: svc.ID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create service: %w", err)
	}
	return nil
}

func (s *Store) CreateSubService(ctx context.Context, svc *catalog.SubService) error {
	svc.CreatedAt = time.Now().UTC()
	m := &subServiceModel{ID: svc.ID, ServiceID: svc.ServiceID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create sub-service: %w", err)
	}
	return nil
}

func (s *Store) CreateSubSubService(ctx context.Context, svc *catalog.SubSubService) error {
	svc.CreatedAt = time.Now().UTC()
	m := &subSubServiceModel{ID: svc.ID, SubServiceID: svc.SubServiceID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create sub-sub-service: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) AppendDecision(ctx context.Context, e *decisionlog.Entry) error {
	e.CreatedAt = time.Now().UTC()
	m := decisionToModel(e)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: append decision: %w", err)
	}
	return nil
}

func (s *Store) QueryDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.CallerID != "" {
			q = q.Where("caller_id = ?", filter.CallerID)
		}
		if filter.PermissionID != "" {
			q = q.Where("permission_id = ?", filter.PermissionID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: query decisions: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*decisionModel)(nil))
	if filter != nil {
		if filter.CallerID != "" {
			q = q.Where("caller_id = ?", filter.CallerID)
		}
		if filter.PermissionID != "" {
			q = q.Where("permission_id = ?", filter.PermissionID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count decisions: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*decisionModel)(nil)).
		Where("created_at < ?", cutoff).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: purge decisions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("authz: purge decisions rows: %w", err)
	}
	return n, nil
}
