// Package mongo implements the composite store on MongoDB via Grove.
// Mongo is the document store of record for the permission engine.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/store"
)

// Collection name constants.
const (
	colGrants         = "authz_job_permissions"
	colExceptions     = "authz_user_permissions"
	colUsers          = "authz_users"
	colServices       = "authz_services"
	colSubServices    = "authz_sub_services"
	colSubSubServices = "authz_sub_sub_services"
	colDecisionLogs   = "authz_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite permission store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all collections. The unique tuple indexes on
// grants and exceptions are what makes concurrent duplicate writes
// converge to a single record.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("authz/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// tupleKeys is the shared index shape of the exact permission tuple.
func tupleKeys(owner string) bson.D {
	return bson.D{
		{Key: owner, Value: 1},
		{Key: "service_id", Value: 1},
		{Key: "sub_service_id", Value: 1},
		{Key: "sub_sub_service_id", Value: 1},
	}
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colGrants: {
			{
				Keys:    tupleKeys("job_id"),
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "job_id", Value: 1}}},
		},
		colExceptions: {
			{
				Keys:    tupleKeys("user_id"),
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "job_id", Value: 1}}},
		},
		colSubServices: {
			{Keys: bson.D{{Key: "service_id", Value: 1}}},
		},
		colSubSubServices: {
			{Keys: bson.D{{Key: "sub_service_id", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "caller_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// tupleFilter builds the exact-tuple filter for a permission ref. The two
// levels the ref does not address are matched against stored nulls.
func tupleFilter(owner string, ownerValue any, ref permid.Ref) bson.M {
	f := ref.Fields()
	return bson.M{
		owner:                ownerValue,
		"service_id":         f.ServiceID,
		"sub_service_id":     f.SubServiceID,
		"sub_sub_service_id": f.SubSubServiceID,
	}
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	g.CreatedAt = now()
	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // tuple already granted, existing record wins
		}
		return fmt.Errorf("authz: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, jobID int, ref permid.Ref) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(tupleFilter("job_id", jobID, ref)).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant job=%d %s: %w", jobID, ref, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("authz: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) ListGrantsByJob(ctx context.Context, jobID int) ([]*grant.Grant, error) {
	return s.ListGrants(ctx, &grant.ListFilter{JobID: &jobID})
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	f := bson.M{}
	if filter != nil {
		if filter.JobID != nil {
			f["job_id"] = *filter.JobID
		}
		applyLevelFilter(f, filter.Level)
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.JobID != nil {
			f["job_id"] = *filter.JobID
		}
		applyLevelFilter(f, filter.Level)
	}
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrant(ctx context.Context, jobID int, ref permid.Ref) (int64, error) {
	res, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(tupleFilter("job_id", jobID, ref)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: delete grant: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteGrantsByJob(ctx context.Context, jobID int) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"job_id": jobID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: delete grants by job: %w", err)
	}
	return nil
}

// applyLevelFilter narrows a grant/exception filter to one hierarchy tier
// by requiring that tier's column non-null.
func applyLevelFilter(f bson.M, level permid.Level) {
	switch level {
	case permid.LevelService:
		f["service_id"] = bson.M{"$ne": nil}
	case permid.LevelSubService:
		f["sub_service_id"] = bson.M{"$ne": nil}
	case permid.LevelSubSubService:
		f["sub_sub_service_id"] = bson.M{"$ne": nil}
	}
}

// ──────────────────────────────────────────────────
// Exception operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertException(ctx context.Context, e *exception.Exception) error {
	ref, ok := e.Ref()
	if !ok {
		return fmt.Errorf("authz: upsert exception: malformed tuple")
	}

	// Find-then-write keeps the original record identity on update. The
	// unique tuple index turns a racing double-insert into a duplicate key
	// error, retried once as an update.
	for attempt := 0; attempt < 2; attempt++ {
		var existing exceptionModel
		err := s.mdb.NewFind(&existing).
			Filter(tupleFilter("user_id", e.UserID, ref)).
			Scan(ctx)
		switch {
		case err == nil:
			m := exceptionToModel(e)
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			m.UpdatedAt = now()
			res, uerr := s.mdb.NewUpdate(m).
				Filter(bson.M{"_id": m.ID}).
				Exec(ctx)
			if uerr != nil {
				return fmt.Errorf("authz: update exception: %w", uerr)
			}
			if res.MatchedCount() == 0 {
				// Record deleted between find and update; insert fresh.
				continue
			}
			return nil
		case isNoDocuments(err):
			t := now()
			e.CreatedAt = t
			e.UpdatedAt = t
			m := exceptionToModel(e)
			if _, ierr := s.mdb.NewInsert(m).Exec(ctx); ierr != nil {
				if mongod.IsDuplicateKeyError(ierr) {
					continue // concurrent insert won, update it instead
				}
				return fmt.Errorf("authz: insert exception: %w", ierr)
			}
			return nil
		default:
			return fmt.Errorf("authz: upsert exception: %w", err)
		}
	}
	return fmt.Errorf("authz: upsert exception: concurrent writes did not settle")
}

func (s *Store) GetException(ctx context.Context, userID string, ref permid.Ref) (*exception.Exception, error) {
	var m exceptionModel
	err := s.mdb.NewFind(&m).
		Filter(tupleFilter("user_id", userID, ref)).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("exception user=%s %s: %w", userID, ref, exception.ErrNotFound)
		}
		return nil, fmt.Errorf("authz: get exception: %w", err)
	}
	return exceptionFromModel(&m), nil
}

func (s *Store) ListExceptionsByUser(ctx context.Context, userID string) ([]*exception.Exception, error) {
	return s.ListExceptions(ctx, &exception.ListFilter{UserID: userID})
}

func (s *Store) ListExceptions(ctx context.Context, filter *exception.ListFilter) ([]*exception.Exception, error) {
	var models []exceptionModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.Allowed != nil {
			f["is_allowed"] = *filter.Allowed
		}
		applyLevelFilter(f, filter.Level)
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.Allowed != nil {
			f["is_allowed"] = *filter.Allowed
		}
		applyLevelFilter(f, filter.Level)
	}
	count, err := s.mdb.NewFind((*exceptionModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count exceptions: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteException(ctx context.Context, userID string, ref permid.Ref) (int64, error) {
	res, err := s.mdb.NewDelete((*exceptionModel)(nil)).
		Many().
		Filter(tupleFilter("user_id", userID, ref)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: delete exception: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteExceptionsByUser(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*exceptionModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID}).
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
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": uid}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s: %w", uid, directory.ErrUserNotFound)
		}
		return nil, fmt.Errorf("authz: get user: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) CreateUser(ctx context.Context, u *directory.User) error {
	t := now()
	u.CreatedAt = t
	u.UpdatedAt = t
	m := userToModel(u)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *directory.User) error {
	u.UpdatedAt = now()
	m := userToModel(u)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("authz: update user: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, directory.ErrUserNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	_, err := s.mdb.NewDelete((*userModel)(nil)).
		Filter(bson.M{"_id": uid}).
		Exec(ctx)
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz: list sub-sub-services: %w", err)
	}
	result := make([]*catalog.SubSubService, len(models))
	for i := range models {
		result[i] = subSubServiceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	svc.CreatedAt = now()
	m := &serviceModel{ID: svc.ID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create service: %w", err)
	}
	return nil
}

func (s *Store) CreateSubService(ctx context.Context, svc *catalog.SubService) error {
	svc.CreatedAt = now()
	m := &subServiceModel{ID: svc.ID, ServiceID: svc.ServiceID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create sub-service: %w", err)
	}
	return nil
}

func (s *Store) CreateSubSubService(ctx context.Context, svc *catalog.SubSubService) error {
	svc.CreatedAt = now()
	m := &subSubServiceModel{ID: svc.ID, SubServiceID: svc.SubServiceID, Name: svc.Name, CreatedAt: svc.CreatedAt}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: create sub-sub-service: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) AppendDecision(ctx context.Context, e *decisionlog.Entry) error {
	e.CreatedAt = now()
	m := decisionToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz: append decision: %w", err)
	}
	return nil
}

func (s *Store) QueryDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionModel
	f := decisionFilter(filter)
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*decisionModel)(nil)).
		Filter(decisionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: count decisions: %w", err)
	}
	return count, nil
}

func decisionFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.CallerID != "" {
		f["caller_id"] = filter.CallerID
	}
	if filter.PermissionID != "" {
		f["permission_id"] = filter.PermissionID
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.Allowed != nil {
		f["allowed"] = *filter.Allowed
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gt"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lt"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) PurgeDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": cutoff}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz: purge decisions: %w", err)
	}
	return res.DeletedCount(), nil
}
