package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

func intPtr(n int) *int { return &n }

func ref(t *testing.T, s string) permid.Ref {
	t.Helper()
	r, ok := permid.Parse(s)
	if !ok {
		t.Fatalf("Parse(%q) failed", s)
	}
	return r
}

func TestGrantCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateGrant(ctx, grant.New(10, ref(t, "s:1"), "tester")); err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}
	if err := s.CreateGrant(ctx, grant.New(10, ref(t, "ss:1"), "tester")); err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}

	// Same numeric id, different level: distinct tuples.
	g, err := s.GetGrant(ctx, 10, ref(t, "s:1"))
	if err != nil {
		t.Fatalf("GetGrant(s:1): %v", err)
	}
	if g.ServiceID == nil || *g.ServiceID != 1 || g.SubServiceID != nil {
		t.Fatalf("GetGrant(s:1) tuple = %+v", g)
	}

	if _, err := s.GetGrant(ctx, 10, ref(t, "sss:1")); !errors.Is(err, grant.ErrNotFound) {
		t.Fatalf("GetGrant(sss:1) err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetGrant(ctx, 99, ref(t, "s:1")); !errors.Is(err, grant.ErrNotFound) {
		t.Fatalf("GetGrant other job err = %v, want ErrNotFound", err)
	}

	// Duplicate create keeps the original.
	dup := grant.New(10, ref(t, "s:1"), "other")
	if err := s.CreateGrant(ctx, dup); err != nil {
		t.Fatalf("CreateGrant dup: %v", err)
	}
	g2, err := s.GetGrant(ctx, 10, ref(t, "s:1"))
	if err != nil {
		t.Fatalf("GetGrant after dup: %v", err)
	}
	if g2.ID.String() != g.ID.String() {
		t.Error("duplicate create replaced the original record")
	}

	n, err := s.DeleteGrant(ctx, 10, ref(t, "s:1"))
	if err != nil || n != 1 {
		t.Fatalf("DeleteGrant = (%d, %v), want (1, nil)", n, err)
	}
	n, err = s.DeleteGrant(ctx, 10, ref(t, "s:1"))
	if err != nil || n != 0 {
		t.Fatalf("DeleteGrant absent = (%d, %v), want (0, nil)", n, err)
	}
}

func TestGrantListFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	seed := []struct {
		job int
		id  string
	}{
		{10, "s:1"}, {10, "ss:2"}, {10, "ss:3"}, {20, "s:1"},
	}
	for _, g := range seed {
		if err := s.CreateGrant(ctx, grant.New(g.job, ref(t, g.id), "tester")); err != nil {
			t.Fatalf("CreateGrant: %v", err)
		}
	}

	byJob, err := s.ListGrantsByJob(ctx, 10)
	if err != nil {
		t.Fatalf("ListGrantsByJob: %v", err)
	}
	if len(byJob) != 3 {
		t.Fatalf("job 10 grants = %d, want 3", len(byJob))
	}

	subs, err := s.ListGrants(ctx, &grant.ListFilter{JobID: intPtr(10), Level: permid.LevelSubService})
	if err != nil {
		t.Fatalf("ListGrants: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("sub-service grants = %d, want 2", len(subs))
	}

	page, err := s.ListGrants(ctx, &grant.ListFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("ListGrants paged: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("page = %d records, want 1", len(page))
	}

	total, err := s.CountGrants(ctx, nil)
	if err != nil || total != 4 {
		t.Fatalf("CountGrants = (%d, %v), want (4, nil)", total, err)
	}

	if err := s.DeleteGrantsByJob(ctx, 10); err != nil {
		t.Fatalf("DeleteGrantsByJob: %v", err)
	}
	total, _ = s.CountGrants(ctx, nil)
	if total != 1 {
		t.Fatalf("grants after job purge = %d, want 1", total)
	}
}

func TestExceptionUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := exception.New("alice", ref(t, "s:1"), false, "tester")
	if err := s.UpsertException(ctx, first); err != nil {
		t.Fatalf("UpsertException: %v", err)
	}

	// Second upsert on the same tuple updates in place, keeping identity.
	second := exception.New("alice", ref(t, "s:1"), true, "tester")
	if err := s.UpsertException(ctx, second); err != nil {
		t.Fatalf("UpsertException update: %v", err)
	}

	got, err := s.GetException(ctx, "alice", ref(t, "s:1"))
	if err != nil {
		t.Fatalf("GetException: %v", err)
	}
	if !got.Allowed {
		t.Error("upsert did not apply the new Allowed value")
	}
	if got.ID.String() != first.ID.String() {
		t.Error("upsert minted a new record instead of updating in place")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("timestamps not maintained: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}

	n, err := s.CountExceptions(ctx, &exception.ListFilter{UserID: "alice"})
	if err != nil || n != 1 {
		t.Fatalf("CountExceptions = (%d, %v), want (1, nil)", n, err)
	}

	// A different tuple for the same user is a separate record.
	if err := s.UpsertException(ctx, exception.New("alice", ref(t, "ss:1"), true, "tester")); err != nil {
		t.Fatalf("UpsertException second tuple: %v", err)
	}
	n, _ = s.CountExceptions(ctx, &exception.ListFilter{UserID: "alice"})
	if n != 2 {
		t.Fatalf("exceptions = %d, want 2", n)
	}
}

func TestExceptionDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpsertException(ctx, exception.New("alice", ref(t, "s:1"), true, "tester")); err != nil {
		t.Fatalf("UpsertException: %v", err)
	}
	if err := s.UpsertException(ctx, exception.New("bob", ref(t, "s:1"), true, "tester")); err != nil {
		t.Fatalf("UpsertException: %v", err)
	}

	n, err := s.DeleteException(ctx, "alice", ref(t, "s:1"))
	if err != nil || n != 1 {
		t.Fatalf("DeleteException = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := s.GetException(ctx, "bob", ref(t, "s:1")); err != nil {
		t.Fatalf("delete leaked across users: %v", err)
	}

	if err := s.DeleteExceptionsByUser(ctx, "bob"); err != nil {
		t.Fatalf("DeleteExceptionsByUser: %v", err)
	}
	if _, err := s.GetException(ctx, "bob", ref(t, "s:1")); !errors.Is(err, exception.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExceptionListFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	allowed := exception.New("alice", ref(t, "s:1"), true, "tester")
	denied := exception.New("alice", ref(t, "ss:2"), false, "tester")
	for _, e := range []*exception.Exception{allowed, denied} {
		if err := s.UpsertException(ctx, e); err != nil {
			t.Fatalf("UpsertException: %v", err)
		}
	}

	f := false
	got, err := s.ListExceptions(ctx, &exception.ListFilter{UserID: "alice", Allowed: &f})
	if err != nil {
		t.Fatalf("ListExceptions: %v", err)
	}
	if len(got) != 1 || got[0].Allowed {
		t.Fatalf("denied filter returned %+v", got)
	}
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &directory.User{ID: "alice", DisplayName: "Alice", JobID: intPtr(10)}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.JobID == nil || *got.JobID != 10 {
		t.Fatalf("JobID = %v, want 10", got.JobID)
	}

	// Mutating the returned copy must not touch stored state.
	*got.JobID = 99
	again, _ := s.GetUser(ctx, "alice")
	if *again.JobID != 10 {
		t.Error("returned record shares memory with stored state")
	}

	got.JobID = nil
	got.IsSuperAdmin = true
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	updated, _ := s.GetUser(ctx, "alice")
	if updated.JobID != nil || !updated.IsSuperAdmin {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := s.UpdateUser(ctx, &directory.User{ID: "ghost"}); !errors.Is(err, directory.ErrUserNotFound) {
		t.Fatalf("UpdateUser ghost err = %v, want ErrUserNotFound", err)
	}

	if err := s.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUser(ctx, "alice"); !errors.Is(err, directory.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestDecisionLog(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := &decisionlog.Entry{
			ID:           id.NewDecisionID(),
			CallerID:     "alice",
			PermissionID: "s:1",
			Allowed:      i%2 == 0,
			Decision:     "allow_job_grant",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendDecision(ctx, e); err != nil {
			t.Fatalf("AppendDecision: %v", err)
		}
	}

	all, err := s.QueryDecisions(ctx, &decisionlog.QueryFilter{CallerID: "alice"})
	if err != nil {
		t.Fatalf("QueryDecisions: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("entries = %d, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatal("entries not ordered newest first")
		}
	}

	tr := true
	allowedOnly, err := s.QueryDecisions(ctx, &decisionlog.QueryFilter{Allowed: &tr})
	if err != nil || len(allowedOnly) != 3 {
		t.Fatalf("allowed filter = (%d, %v), want 3 entries", len(allowedOnly), err)
	}

	purged, err := s.PurgeDecisionsBefore(ctx, base.Add(2*time.Minute))
	if err != nil || purged != 2 {
		t.Fatalf("PurgeDecisionsBefore = (%d, %v), want (2, nil)", purged, err)
	}
	n, _ := s.CountDecisions(ctx, nil)
	if n != 3 {
		t.Fatalf("entries after purge = %d, want 3", n)
	}
}
