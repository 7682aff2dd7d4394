// Package memory provides an in-memory store implementation, used for
// tests and for embedded evaluation without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// Store is an in-memory implementation of store.Store. All operations are
// safe for concurrent use. Returned records are copies; mutating them does
// not affect stored state.
type Store struct {
	mu sync.RWMutex

	grants     []*grant.Grant
	exceptions []*exception.Exception
	users      map[string]*directory.User
	services   map[int]*catalog.Service
	subs       map[int]*catalog.SubService
	subsubs    map[int]*catalog.SubSubService
	decisions  []*decisionlog.Entry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]*directory.User),
		services: make(map[int]*catalog.Service),
		subs:     make(map[int]*catalog.SubService),
		subsubs:  make(map[int]*catalog.SubSubService),
	}
}

// Migrate is a no-op for the memory backend.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory backend.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory backend.
func (s *Store) Close() error { return nil }

func tupleEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func matchesRef(svc, sub, subsub *int, ref permid.Ref) bool {
	f := ref.Fields()
	return tupleEqual(svc, f.ServiceID) &&
		tupleEqual(sub, f.SubServiceID) &&
		tupleEqual(subsub, f.SubSubServiceID)
}

func grantLevel(g *grant.Grant) permid.Level {
	ref, ok := g.Ref()
	if !ok {
		return ""
	}
	return ref.Level
}

func exceptionLevel(e *exception.Exception) permid.Level {
	ref, ok := e.Ref()
	if !ok {
		return ""
	}
	return ref.Level
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// --- grants ---

func copyGrant(g *grant.Grant) *grant.Grant {
	c := *g
	return &c
}

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := g.Ref(); ok {
		for _, existing := range s.grants {
			if existing.JobID == g.JobID && matchesRef(existing.ServiceID, existing.SubServiceID, existing.SubSubServiceID, ref) {
				// Existing tuple wins.
				return nil
			}
		}
	}

	c := copyGrant(g)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.grants = append(s.grants, c)
	return nil
}

func (s *Store) GetGrant(_ context.Context, jobID int, ref permid.Ref) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.grants {
		if g.JobID == jobID && matchesRef(g.ServiceID, g.SubServiceID, g.SubSubServiceID, ref) {
			return copyGrant(g), nil
		}
	}
	return nil, grant.ErrNotFound
}

func (s *Store) ListGrantsByJob(ctx context.Context, jobID int) ([]*grant.Grant, error) {
	return s.ListGrants(ctx, &grant.ListFilter{JobID: &jobID})
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	if filter == nil {
		filter = &grant.ListFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*grant.Grant
	for _, g := range s.grants {
		if filter.JobID != nil && g.JobID != *filter.JobID {
			continue
		}
		if filter.Level != "" && grantLevel(g) != filter.Level {
			continue
		}
		out = append(out, copyGrant(g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountGrants(_ context.Context, filter *grant.ListFilter) (int64, error) {
	if filter == nil {
		filter = &grant.ListFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.grants {
		if filter.JobID != nil && g.JobID != *filter.JobID {
			continue
		}
		if filter.Level != "" && grantLevel(g) != filter.Level {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) DeleteGrant(_ context.Context, jobID int, ref permid.Ref) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		kept    []*grant.Grant
		deleted int64
	)
	for _, g := range s.grants {
		if g.JobID == jobID && matchesRef(g.ServiceID, g.SubServiceID, g.SubSubServiceID, ref) {
			deleted++
			continue
		}
		kept = append(kept, g)
	}
	s.grants = kept
	return deleted, nil
}

func (s *Store) DeleteGrantsByJob(_ context.Context, jobID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*grant.Grant
	for _, g := range s.grants {
		if g.JobID != jobID {
			kept = append(kept, g)
		}
	}
	s.grants = kept
	return nil
}

// --- exceptions ---

func copyException(e *exception.Exception) *exception.Exception {
	c := *e
	return &c
}

func (s *Store) UpsertException(_ context.Context, e *exception.Exception) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if ref, ok := e.Ref(); ok {
		for i, existing := range s.exceptions {
			if existing.UserID == e.UserID && matchesRef(existing.ServiceID, existing.SubServiceID, existing.SubSubServiceID, ref) {
				c := copyException(e)
				c.ID = existing.ID
				c.CreatedAt = existing.CreatedAt
				c.UpdatedAt = now
				s.exceptions[i] = c
				return nil
			}
		}
	}

	c := copyException(e)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.exceptions = append(s.exceptions, c)
	return nil
}

func (s *Store) GetException(_ context.Context, userID string, ref permid.Ref) (*exception.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.exceptions {
		if e.UserID == userID && matchesRef(e.ServiceID, e.SubServiceID, e.SubSubServiceID, ref) {
			return copyException(e), nil
		}
	}
	return nil, exception.ErrNotFound
}

func (s *Store) ListExceptionsByUser(ctx context.Context, userID string) ([]*exception.Exception, error) {
	return s.ListExceptions(ctx, &exception.ListFilter{UserID: userID})
}

func (s *Store) ListExceptions(_ context.Context, filter *exception.ListFilter) ([]*exception.Exception, error) {
	if filter == nil {
		filter = &exception.ListFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*exception.Exception
	for _, e := range s.exceptions {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Level != "" && exceptionLevel(e) != filter.Level {
			continue
		}
		if filter.Allowed != nil && e.Allowed != *filter.Allowed {
			continue
		}
		out = append(out, copyException(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountExceptions(_ context.Context, filter *exception.ListFilter) (int64, error) {
	if filter == nil {
		filter = &exception.ListFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.exceptions {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Level != "" && exceptionLevel(e) != filter.Level {
			continue
		}
		if filter.Allowed != nil && e.Allowed != *filter.Allowed {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) DeleteException(_ context.Context, userID string, ref permid.Ref) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		kept    []*exception.Exception
		deleted int64
	)
	for _, e := range s.exceptions {
		if e.UserID == userID && matchesRef(e.ServiceID, e.SubServiceID, e.SubSubServiceID, ref) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.exceptions = kept
	return deleted, nil
}

func (s *Store) DeleteExceptionsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*exception.Exception
	for _, e := range s.exceptions {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	s.exceptions = kept
	return nil
}

// --- users ---

func copyUser(u *directory.User) *directory.User {
	c := *u
	if u.JobID != nil {
		j := *u.JobID
		c.JobID = &j
	}
	return &c
}

func (s *Store) GetUser(_ context.Context, uid string) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) CreateUser(_ context.Context, u *directory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyUser(u)
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.users[c.ID] = c
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *directory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return directory.ErrUserNotFound
	}
	c := copyUser(u)
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.users[c.ID] = c
	return nil
}

func (s *Store) DeleteUser(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, uid)
	return nil
}

// --- catalogs ---

func (s *Store) ListServices(_ context.Context) ([]*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Service, 0, len(s.services))
	for _, svc := range s.services {
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSubServices(_ context.Context) ([]*catalog.SubService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.SubService, 0, len(s.subs))
	for _, svc := range s.subs {
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSubSubServices(_ context.Context) ([]*catalog.SubSubService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.SubSubService, 0, len(s.subsubs))
	for _, svc := range s.subsubs {
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateService(_ context.Context, svc *catalog.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *svc
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.services[c.ID] = &c
	return nil
}

func (s *Store) CreateSubService(_ context.Context, svc *catalog.SubService) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *svc
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.subs[c.ID] = &c
	return nil
}

func (s *Store) CreateSubSubService(_ context.Context, svc *catalog.SubSubService) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *svc
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.subsubs[c.ID] = &c
	return nil
}

// --- decision log ---

func copyEntry(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	return &c
}

func (s *Store) AppendDecision(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyEntry(e)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.decisions = append(s.decisions, c)
	return nil
}

func (s *Store) QueryDecisions(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	if filter == nil {
		filter = &decisionlog.QueryFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*decisionlog.Entry
	for _, e := range s.decisions {
		if !decisionMatches(e, filter) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountDecisions(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	if filter == nil {
		filter = &decisionlog.QueryFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.decisions {
		if decisionMatches(e, filter) {
			n++
		}
	}
	return n, nil
}

func decisionMatches(e *decisionlog.Entry, f *decisionlog.QueryFilter) bool {
	if f.CallerID != "" && e.CallerID != f.CallerID {
		return false
	}
	if f.PermissionID != "" && e.PermissionID != f.PermissionID {
		return false
	}
	if f.Decision != "" && !strings.EqualFold(e.Decision, f.Decision) {
		return false
	}
	if f.Allowed != nil && e.Allowed != *f.Allowed {
		return false
	}
	if f.After != nil && !e.CreatedAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !e.CreatedAt.Before(*f.Before) {
		return false
	}
	return true
}

func (s *Store) PurgeDecisionsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		kept   []*decisionlog.Entry
		purged int64
	)
	for _, e := range s.decisions {
		if e.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.decisions = kept
	return purged, nil
}
