package authz_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

func TestManageJobGrantsAddAndRemove(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := asUser("root")

	change, err := eng.ManageJobGrants(ctx, 10, []string{"sss:3"}, []string{"ss:2"})
	if err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if change.Added != 1 || change.Removed != 1 || change.Skipped != 0 {
		t.Fatalf("change = %+v, want added=1 removed=1 skipped=0", change)
	}

	grants, err := st.ListGrantsByJob(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListGrantsByJob: %v", err)
	}
	var ids []string
	for _, g := range grants {
		ref, ok := g.Ref()
		if !ok {
			t.Fatalf("stored grant has malformed tuple: %+v", g)
		}
		ids = append(ids, ref.String())
	}
	want := map[string]bool{"s:1": true, "sss:3": true}
	if len(ids) != len(want) {
		t.Fatalf("job 10 grants = %v, want keys %v", ids, want)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected grant %q", id)
		}
	}
}

func TestManageJobGrantsRemoveBeforeAdd(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := asUser("root")

	// The same id in both lists ends up granted: removals apply first.
	change, err := eng.ManageJobGrants(ctx, 10, []string{"s:1"}, []string{"s:1"})
	if err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if change.Added != 1 || change.Removed != 1 {
		t.Fatalf("change = %+v, want added=1 removed=1", change)
	}

	if _, err := st.GetGrant(context.Background(), 10, mustParse(t, "s:1")); err != nil {
		t.Fatalf("job 10 lost s:1; removals must run before adds: %v", err)
	}
}

func TestManageJobGrantsIdempotentAdd(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := asUser("root")

	change, err := eng.ManageJobGrants(ctx, 10, []string{"s:1", "s:1", "ss:2"}, nil)
	if err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if change.Added != 0 || change.Skipped != 3 {
		t.Fatalf("change = %+v, want added=0 skipped=3", change)
	}

	n, err := st.CountGrants(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountGrants: %v", err)
	}
	if n != 3 {
		t.Fatalf("total grants = %d, want 3 (no duplicates)", n)
	}
}

func TestManageJobGrantsSkipsMalformed(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := asUser("root")

	change, err := eng.ManageJobGrants(ctx, 10,
		[]string{"bogus", "s:4"},
		[]string{"also bogus", "s:1"},
	)
	if err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if change.Added != 1 || change.Removed != 1 || change.Skipped != 2 {
		t.Fatalf("change = %+v, want added=1 removed=1 skipped=2", change)
	}
}

func TestManageEmptyBatchesSucceed(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := asUser("root")

	change, err := eng.ManageJobGrants(ctx, 10, nil, nil)
	if err != nil {
		t.Fatalf("ManageJobGrants with empty input: %v", err)
	}
	if change.Added != 0 || change.Removed != 0 || change.Skipped != 0 {
		t.Fatalf("change = %+v, want all zero", change)
	}

	excChange, err := eng.ManageUserExceptions(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("ManageUserExceptions with empty input: %v", err)
	}
	if excChange.Upserted != 0 || excChange.Deleted != 0 || excChange.Skipped != 0 {
		t.Fatalf("change = %+v, want all zero", excChange)
	}

	n, err := st.CountGrants(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountGrants: %v", err)
	}
	if n != 3 {
		t.Fatalf("total grants = %d, want 3 (empty batch must not mutate)", n)
	}
}

func TestManageJobGrantsScopedToJob(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := asUser("root")

	if _, err := eng.ManageJobGrants(ctx, 10, nil, []string{"s:1"}); err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}

	grants, err := st.ListGrantsByJob(context.Background(), 20)
	if err != nil {
		t.Fatalf("ListGrantsByJob: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("job 20 has %d grants, want 1 (removal leaked across jobs)", len(grants))
	}
}

func TestManageJobGrantsUnauthenticated(t *testing.T) {
	eng, _ := newTestEngine(t)

	if _, err := eng.ManageJobGrants(context.Background(), 10, []string{"s:1"}, nil); !errors.Is(err, authz.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestManageJobGrantsRequireAdmin(t *testing.T) {
	eng, _ := newTestEngine(t, authz.WithConfig(authz.Config{RequireManagerAdmin: true}))

	if _, err := eng.ManageJobGrants(asUser("alice"), 10, []string{"s:4"}, nil); !errors.Is(err, authz.ErrManagementDenied) {
		t.Fatalf("err = %v, want ErrManagementDenied", err)
	}
	if _, err := eng.ManageJobGrants(asUser("root"), 10, []string{"s:4"}, nil); err != nil {
		t.Fatalf("super admin blocked: %v", err)
	}
}

func TestManageUserExceptionsFourCases(t *testing.T) {
	// bob has job 20, which grants only s:1 and holds no exceptions yet.
	tests := []struct {
		name      string
		entry     authz.ExceptionEntry
		wantState string // "allow", "deny" or "absent"
	}{
		{
			"allow where job lacks it creates allow exception",
			authz.ExceptionEntry{SubServiceID: intPtr(2), Allowed: true},
			"allow",
		},
		{
			"deny where job has it creates deny exception",
			authz.ExceptionEntry{ServiceID: intPtr(1), Allowed: false},
			"deny",
		},
		{
			"allow where job already grants stores nothing",
			authz.ExceptionEntry{ServiceID: intPtr(1), Allowed: true},
			"absent",
		},
		{
			"deny where job never granted stores nothing",
			authz.ExceptionEntry{SubSubServiceID: intPtr(5), Allowed: false},
			"absent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, st := newTestEngine(t)

			change, err := eng.ManageUserExceptions(asUser("root"), "bob", []authz.ExceptionEntry{tt.entry})
			if err != nil {
				t.Fatalf("ManageUserExceptions: %v", err)
			}

			ref, ok := permid.FromFields(permid.Fields{
				ServiceID:       tt.entry.ServiceID,
				SubServiceID:    tt.entry.SubServiceID,
				SubSubServiceID: tt.entry.SubSubServiceID,
			})
			if !ok {
				t.Fatalf("test entry malformed: %+v", tt.entry)
			}
			exc, err := st.GetException(context.Background(), "bob", ref)
			switch tt.wantState {
			case "absent":
				if !errors.Is(err, exception.ErrNotFound) {
					t.Fatalf("GetException = (%+v, %v), want ErrNotFound", exc, err)
				}
				if change.Upserted != 0 {
					t.Errorf("change = %+v, want upserted=0", change)
				}
			case "allow", "deny":
				if err != nil {
					t.Fatalf("GetException: %v", err)
				}
				if exc.Allowed != (tt.wantState == "allow") {
					t.Errorf("exception Allowed = %v, want %v", exc.Allowed, tt.wantState == "allow")
				}
				if !exc.ManualException {
					t.Error("exception not flagged manual")
				}
				if change.Upserted != 1 {
					t.Errorf("change = %+v, want upserted=1", change)
				}
			}
		})
	}
}

func TestManageUserExceptionsDeletesStaleOverride(t *testing.T) {
	eng, st := newTestEngine(t)

	// alice carries a deny exception on s:1 while job 10 grants it.
	// Re-requesting "allow" matches the job default, so the override goes.
	change, err := eng.ManageUserExceptions(asUser("root"), "alice",
		[]authz.ExceptionEntry{{ServiceID: intPtr(1), Allowed: true}})
	if err != nil {
		t.Fatalf("ManageUserExceptions: %v", err)
	}
	if change.Deleted != 1 || change.Upserted != 0 {
		t.Fatalf("change = %+v, want deleted=1 upserted=0", change)
	}

	_, err = st.GetException(context.Background(), "alice", mustParse(t, "s:1"))
	if !errors.Is(err, exception.ErrNotFound) {
		t.Fatalf("stale deny exception survived: %v", err)
	}

	ok, err := eng.CanI(asUser("alice"), "s:1")
	if err != nil || !ok {
		t.Fatalf("CanI after delete = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestManageUserExceptionsUpsertFlipsExisting(t *testing.T) {
	eng, st := newTestEngine(t)

	// alice's allow exception on sss:9 has no backing grant; requesting
	// deny... matches the job default (absent), so it is deleted; but a
	// deny on a granted tuple updates in place. Flip the s:1 deny into a
	// fresh deny to confirm single-record upsert semantics.
	change, err := eng.ManageUserExceptions(asUser("root"), "alice",
		[]authz.ExceptionEntry{{ServiceID: intPtr(1), Allowed: false}})
	if err != nil {
		t.Fatalf("ManageUserExceptions: %v", err)
	}
	if change.Upserted != 1 {
		t.Fatalf("change = %+v, want upserted=1", change)
	}

	n, err := st.CountExceptions(context.Background(), &exception.ListFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("CountExceptions: %v", err)
	}
	if n != 2 {
		t.Fatalf("alice has %d exceptions, want 2 (upsert must not duplicate)", n)
	}
}

func TestManageUserExceptionsSkipsMalformedEntries(t *testing.T) {
	eng, _ := newTestEngine(t)

	entries := []authz.ExceptionEntry{
		{}, // zero non-nil ids
		{ServiceID: intPtr(1), SubServiceID: intPtr(2), Allowed: true}, // two non-nil
		{SubServiceID: intPtr(2), Allowed: true},                      // valid
	}
	change, err := eng.ManageUserExceptions(asUser("root"), "bob", entries)
	if err != nil {
		t.Fatalf("ManageUserExceptions: %v", err)
	}
	if change.Skipped != 2 || change.Upserted != 1 {
		t.Fatalf("change = %+v, want skipped=2 upserted=1", change)
	}
}

func TestManageUserExceptionsUnknownTarget(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.ManageUserExceptions(asUser("root"), "ghost",
		[]authz.ExceptionEntry{{ServiceID: intPtr(1), Allowed: true}})
	if !errors.Is(err, authz.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

// spyCache records invalidation calls.
type spyCache struct {
	mu              sync.Mutex
	invalidatedUser string
	invalidatedAll  bool
}

func (c *spyCache) Get(_ context.Context, _, _ string) (*authz.CheckResult, bool) { return nil, false }
func (c *spyCache) Set(_ context.Context, _, _ string, _ *authz.CheckResult)      {}

func (c *spyCache) InvalidateUser(_ context.Context, callerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidatedUser = callerID
}

func (c *spyCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidatedAll = true
}

func TestManageInvalidatesCache(t *testing.T) {
	spy := &spyCache{}
	eng, _ := newTestEngine(t, authz.WithCache(spy))

	if _, err := eng.ManageJobGrants(asUser("root"), 10, []string{"s:4"}, nil); err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if !spy.invalidatedAll {
		t.Error("grant write did not clear the cache")
	}

	if _, err := eng.ManageUserExceptions(asUser("root"), "bob",
		[]authz.ExceptionEntry{{SubServiceID: intPtr(2), Allowed: true}}); err != nil {
		t.Fatalf("ManageUserExceptions: %v", err)
	}
	if spy.invalidatedUser != "bob" {
		t.Errorf("exception write invalidated %q, want %q", spy.invalidatedUser, "bob")
	}
}

func TestManageNoopSkipsInvalidation(t *testing.T) {
	spy := &spyCache{}
	eng, _ := newTestEngine(t, authz.WithCache(spy))

	// Unparsable-only batch mutates nothing.
	if _, err := eng.ManageJobGrants(asUser("root"), 10, []string{"junk"}, []string{"junk"}); err != nil {
		t.Fatalf("ManageJobGrants: %v", err)
	}
	if spy.invalidatedAll {
		t.Error("no-op grant batch cleared the cache")
	}
}
