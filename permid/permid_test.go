package permid_test

import (
	"testing"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		in    string
		level permid.Level
		id    int
	}{
		{"s:1", permid.LevelService, 1},
		{"s:0", permid.LevelService, 0},
		{"ss:10", permid.LevelSubService, 10},
		{"sss:789", permid.LevelSubSubService, 789},
		{"s:007", permid.LevelService, 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, ok := permid.Parse(tt.in)
			if !ok {
				t.Fatalf("Parse(%q) failed", tt.in)
			}
			if ref.Level != tt.level || ref.NumericID != tt.id {
				t.Errorf("Parse(%q) = %v/%d, want %v/%d", tt.in, ref.Level, ref.NumericID, tt.level, tt.id)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []string{
		"",
		"invalid:123",
		"s:",
		":123",
		"xyz:999",
		"s:1@#$%",
		"malformed",
		"s:-1",
		"S:1",
		" s:1",
		"s:1 ",
		"ssss:1",
		"s:1:2",
		"s:1.5",
	}
	for _, in := range tests {
		if _, ok := permid.Parse(in); ok {
			t.Errorf("Parse(%q) succeeded, want rejection", in)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"s:1", "ss:10", "sss:789", "s:0"} {
		ref, ok := permid.Parse(in)
		if !ok {
			t.Fatalf("Parse(%q) failed", in)
		}
		if got := ref.String(); got != in {
			t.Errorf("round trip %q = %q", in, got)
		}
	}
}

func TestFields(t *testing.T) {
	ref := permid.Ref{Level: permid.LevelSubService, NumericID: 42}
	f := ref.Fields()
	if f.ServiceID != nil || f.SubSubServiceID != nil {
		t.Error("expected only sub_service_id to be set")
	}
	if f.SubServiceID == nil || *f.SubServiceID != 42 {
		t.Errorf("sub_service_id = %v, want 42", f.SubServiceID)
	}

	back, ok := permid.FromFields(f)
	if !ok || back != ref {
		t.Errorf("FromFields(Fields()) = %v/%v, want %v", back, ok, ref)
	}
}

func TestFromFieldsMalformed(t *testing.T) {
	one, two := 1, 2
	tests := []struct {
		name string
		f    permid.Fields
	}{
		{"all nil", permid.Fields{}},
		{"two set", permid.Fields{ServiceID: &one, SubServiceID: &two}},
		{"all set", permid.Fields{ServiceID: &one, SubServiceID: &two, SubSubServiceID: &one}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := permid.FromFields(tt.f); ok {
				t.Error("expected malformed triple to be rejected")
			}
		})
	}
}
