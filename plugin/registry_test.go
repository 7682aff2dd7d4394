package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

type checkRecorder struct {
	before []string
	after  []string
	err    error
}

func (p *checkRecorder) Name() string { return "check-recorder" }

func (p *checkRecorder) OnBeforeCheck(_ context.Context, callerID, permissionID string) error {
	p.before = append(p.before, callerID+"/"+permissionID)
	return p.err
}

func (p *checkRecorder) OnAfterCheck(_ context.Context, callerID, permissionID string, _ bool, decision string) error {
	p.after = append(p.after, callerID+"/"+permissionID+"/"+decision)
	return p.err
}

type grantRecorder struct {
	added   int
	removed int
}

func (p *grantRecorder) Name() string { return "grant-recorder" }

func (p *grantRecorder) OnGrantAdded(_ context.Context, _ *grant.Grant) error {
	p.added++
	return nil
}

func (p *grantRecorder) OnGrantRemoved(_ context.Context, _ int, _ permid.Ref) error {
	p.removed++
	return nil
}

func TestRegistryDispatchesOnlyImplementedHooks(t *testing.T) {
	r := NewRegistry(slog.Default())
	cr := &checkRecorder{}
	gr := &grantRecorder{}
	r.Register(cr)
	r.Register(gr)

	ctx := context.Background()
	r.EmitBeforeCheck(ctx, "u1", "s:1")
	r.EmitAfterCheck(ctx, "u1", "s:1", true, "allow_job_grant")
	r.EmitGrantAdded(ctx, grant.New(2, permid.Ref{Level: permid.LevelService, NumericID: 1}, "admin"))
	r.EmitGrantRemoved(ctx, 2, permid.Ref{Level: permid.LevelService, NumericID: 1})

	if len(cr.before) != 1 || cr.before[0] != "u1/s:1" {
		t.Errorf("before hooks = %v", cr.before)
	}
	if len(cr.after) != 1 || cr.after[0] != "u1/s:1/allow_job_grant" {
		t.Errorf("after hooks = %v", cr.after)
	}
	if gr.added != 1 || gr.removed != 1 {
		t.Errorf("grant hooks = %d added, %d removed", gr.added, gr.removed)
	}
}

func TestRegistryHookErrorsDoNotPropagate(t *testing.T) {
	r := NewRegistry(slog.Default())
	cr := &checkRecorder{err: errors.New("boom")}
	r.Register(cr)

	// Must not panic and must still invoke subsequent emits.
	r.EmitBeforeCheck(context.Background(), "u1", "s:1")
	r.EmitBeforeCheck(context.Background(), "u1", "s:2")
	if len(cr.before) != 2 {
		t.Errorf("expected both emits delivered, got %d", len(cr.before))
	}
}

func TestRegistryPluginsList(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&checkRecorder{})
	if len(r.Plugins()) != 1 {
		t.Errorf("plugins = %d, want 1", len(r.Plugins()))
	}
	// Nil logger must be tolerated when a hook fails.
	r.Register(&checkRecorder{err: errors.New("x")})
	r.EmitAfterCheck(context.Background(), "u", "s:1", false, "deny_no_grant")
}
