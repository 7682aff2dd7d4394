package authz_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/store/memory"
)

func intPtr(n int) *int { return &n }

func mustParse(t *testing.T, s string) permid.Ref {
	t.Helper()
	ref, ok := permid.Parse(s)
	if !ok {
		t.Fatalf("Parse(%q) failed", s)
	}
	return ref
}

// newTestEngine builds an engine over a seeded memory store:
//
//	root   — super admin
//	alice  — job 10; exceptions: deny s:1, allow sss:9
//	bob    — job 20
//	carol  — no job
//
// Job 10 grants s:1 and ss:2; job 20 grants s:1.
func newTestEngine(t *testing.T, opts ...authz.Option) (*authz.Engine, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	users := []*directory.User{
		{ID: "root", IsSuperAdmin: true},
		{ID: "alice", JobID: intPtr(10)},
		{ID: "bob", JobID: intPtr(20)},
		{ID: "carol"},
	}
	for _, u := range users {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.ID, err)
		}
	}

	grants := []struct {
		job int
		id  string
	}{
		{10, "s:1"},
		{10, "ss:2"},
		{20, "s:1"},
	}
	for _, g := range grants {
		if err := st.CreateGrant(ctx, grant.New(g.job, mustParse(t, g.id), "seed")); err != nil {
			t.Fatalf("CreateGrant(%d, %s): %v", g.job, g.id, err)
		}
	}

	excs := []struct {
		user    string
		id      string
		allowed bool
	}{
		{"alice", "s:1", false},
		{"alice", "sss:9", true},
	}
	for _, x := range excs {
		if err := st.UpsertException(ctx, exception.New(x.user, mustParse(t, x.id), x.allowed, "seed")); err != nil {
			t.Fatalf("UpsertException(%s, %s): %v", x.user, x.id, err)
		}
	}

	eng, err := authz.NewEngine(append([]authz.Option{authz.WithStore(st)}, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng, st
}

func asUser(uid string) context.Context {
	return authz.WithCaller(context.Background(), uid)
}

func TestCheckDecisions(t *testing.T) {
	eng, _ := newTestEngine(t)

	tests := []struct {
		name         string
		caller       string
		permissionID string
		allowed      bool
		decision     authz.Decision
	}{
		{"super admin bypasses resolution", "root", "s:999", true, authz.DecisionAllowSuperAdmin},
		{"super admin bypasses even malformed ids", "root", "not-a-permission", true, authz.DecisionAllowSuperAdmin},
		{"job grant allows", "bob", "s:1", true, authz.DecisionAllowGrant},
		{"no grant denies", "bob", "ss:2", false, authz.DecisionDenyNoGrant},
		{"deny exception overrides job grant", "alice", "s:1", false, authz.DecisionDenyException},
		{"allow exception without grant", "alice", "sss:9", true, authz.DecisionAllowException},
		{"grant still applies beside exceptions", "alice", "ss:2", true, authz.DecisionAllowGrant},
		{"user without job denies", "carol", "s:1", false, authz.DecisionDenyNoGrant},
		{"malformed id denies", "alice", "sx:1", false, authz.DecisionDenyMalformed},
		{"empty id denies", "alice", "", false, authz.DecisionDenyMalformed},
		{"whitespace denies", "alice", " s:1", false, authz.DecisionDenyMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Check(asUser(tt.caller), tt.permissionID)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if result.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.allowed)
			}
			if result.Decision != tt.decision {
				t.Errorf("Decision = %q, want %q", result.Decision, tt.decision)
			}
		})
	}
}

func TestCheckUnauthenticated(t *testing.T) {
	eng, _ := newTestEngine(t)

	if _, err := eng.Check(context.Background(), "s:1"); err != authz.ErrUnauthenticated {
		t.Fatalf("Check without caller: err = %v, want ErrUnauthenticated", err)
	}
}

func TestCheckUnknownUser(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Check(asUser("ghost"), "s:1")
	if !errors.Is(err, authz.ErrUserNotFound) {
		t.Fatalf("Check as unknown user: err = %v, want ErrUserNotFound", err)
	}
}

func TestCanI(t *testing.T) {
	eng, _ := newTestEngine(t)

	ok, err := eng.CanI(asUser("bob"), "s:1")
	if err != nil || !ok {
		t.Fatalf("CanI = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = eng.CanI(asUser("bob"), "sss:7")
	if err != nil || ok {
		t.Fatalf("CanI = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestCheckWritesDecisionLog(t *testing.T) {
	eng, st := newTestEngine(t)

	if _, err := eng.Check(asUser("bob"), "s:1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, err := eng.Check(asUser("bob"), "nonsense"); err != nil {
		t.Fatalf("Check: %v", err)
	}

	entries, err := st.QueryDecisions(context.Background(), &decisionlog.QueryFilter{CallerID: "bob"})
	if err != nil {
		t.Fatalf("QueryDecisions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d decision entries, want 2", len(entries))
	}

	denied := false
	allowed := false
	for _, e := range entries {
		if e.Allowed && e.Decision == string(authz.DecisionAllowGrant) {
			allowed = true
		}
		if !e.Allowed && e.Decision == string(authz.DecisionDenyMalformed) {
			denied = true
		}
	}
	if !allowed || !denied {
		t.Errorf("decision log missing expected entries: allowed=%v denied=%v", allowed, denied)
	}
}

func TestCheckDecisionLogDisabled(t *testing.T) {
	off := false
	eng, st := newTestEngine(t, authz.WithConfig(authz.Config{EnableDecisionLog: &off}))

	if _, err := eng.Check(asUser("bob"), "s:1"); err != nil {
		t.Fatalf("Check: %v", err)
	}

	n, err := st.CountDecisions(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountDecisions: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d decision entries, want 0", n)
	}
}

type failingHook struct{}

func (failingHook) Name() string { return "failing-hook" }

func (failingHook) OnBeforeCheck(context.Context, string, string) error {
	return errors.New("boom")
}

func TestPluginHookErrorsUseConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// WithPlugin ordered before WithLogger must still log hook errors
	// through the configured logger.
	eng, _ := newTestEngine(t,
		authz.WithPlugin(failingHook{}),
		authz.WithLogger(logger),
	)

	if _, err := eng.Check(asUser("bob"), "s:1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(buf.String(), "plugin hook failed") {
		t.Fatalf("hook error missing from configured logger output: %q", buf.String())
	}
}

func TestEffectivePermissionsRegularUser(t *testing.T) {
	eng, _ := newTestEngine(t)

	perms, err := eng.EffectivePermissions(asUser("alice"))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}

	want := map[string]bool{
		"general_access": true,
		"s:1":            false, // job grant flipped by deny exception
		"ss:2":           true,  // job grant
		"sss:9":          true,  // allow exception without grant
	}
	if len(perms) != len(want) {
		t.Fatalf("got %d keys, want %d: %v", len(perms), len(want), perms)
	}
	for k, v := range want {
		got, ok := perms[k]
		if !ok {
			t.Errorf("missing key %q", k)
			continue
		}
		if got != v {
			t.Errorf("perms[%q] = %v, want %v", k, got, v)
		}
	}
}

func TestEffectivePermissionsNoJob(t *testing.T) {
	eng, _ := newTestEngine(t)

	perms, err := eng.EffectivePermissions(asUser("carol"))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if len(perms) != 1 || !perms[authz.GeneralAccessKey] {
		t.Fatalf("got %v, want only general_access=true", perms)
	}
}

func TestEffectivePermissionsSuperAdmin(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	seed := []error{
		st.CreateService(ctx, &catalog.Service{ID: 1, Name: "security"}),
		st.CreateService(ctx, &catalog.Service{ID: 2, Name: "facilities"}),
		st.CreateSubService(ctx, &catalog.SubService{ID: 4, ServiceID: 1, Name: "guards"}),
		st.CreateSubSubService(ctx, &catalog.SubSubService{ID: 7, SubServiceID: 4, Name: "rosters"}),
	}
	for _, err := range seed {
		if err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	perms, err := eng.EffectivePermissions(asUser("root"))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}

	for _, key := range []string{"general_access", "s:1", "s:2", "ss:4", "sss:7"} {
		if !perms[key] {
			t.Errorf("perms[%q] = false, want true", key)
		}
	}
	if len(perms) != 5 {
		t.Errorf("got %d keys, want 5: %v", len(perms), perms)
	}
}

func TestEffectivePermissionsSkipsMalformedRows(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	// Rows violating the one-non-null invariant are skipped, not surfaced.
	bad := grant.New(10, mustParse(t, "s:5"), "seed")
	bad.SubServiceID = intPtr(6)
	if err := st.CreateGrant(ctx, bad); err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}

	perms, err := eng.EffectivePermissions(asUser("alice"))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if _, ok := perms["s:5"]; ok {
		t.Errorf("malformed grant row leaked into effective set: %v", perms)
	}
}
