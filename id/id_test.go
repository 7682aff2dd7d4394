package id_test

import (
	"strings"
	"testing"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"GrantID", id.NewGrantID, "grant_"},
		{"ExceptionID", id.NewExceptionID, "exc_"},
		{"DecisionID", id.NewDecisionID, "decision_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"GrantID", id.NewGrantID, id.ParseGrantID},
		{"ExceptionID", id.NewExceptionID, id.ParseExceptionID},
		{"DecisionID", id.NewDecisionID, id.ParseDecisionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.newFn()
			parsed, err := tt.parseFn(orig.String())
			if err != nil {
				t.Fatalf("parse %q: %v", orig, err)
			}
			if parsed.String() != orig.String() {
				t.Errorf("round trip %q = %q", orig, parsed)
			}
		})
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	grantID := id.NewGrantID()
	if _, err := id.ParseExceptionID(grantID.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero value should be nil")
	}
	if i.String() != "" {
		t.Errorf("nil ID string = %q, want empty", i.String())
	}
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error parsing empty string")
	}
}

func TestScanValue(t *testing.T) {
	orig := id.NewGrantID()
	v, err := orig.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != orig.String() {
		t.Errorf("scan round trip = %q, want %q", scanned, orig)
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("scanning nil should yield the Nil ID")
	}
}
