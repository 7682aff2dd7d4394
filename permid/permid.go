// Package permid implements the three-level permission identifier used
// across the portal: "s:<id>" addresses a service, "ss:<id>" a sub-service
// and "sss:<id>" a sub-sub-service.
//
// Parsing is deliberately forgiving in outcome but strict in grammar: a
// string that does not match the exact shape is simply "not a permission id"
// (ok == false), never an error. Callers treat unparsable input as "no
// match" so that partially-invalid batches still process their valid
// members.
package permid

import "strconv"

// Level identifies which tier of the service hierarchy a permission
// addresses.
type Level string

const (
	// LevelService addresses a top-level service ("s:<id>").
	LevelService Level = "service"

	// LevelSubService addresses a sub-service ("ss:<id>").
	LevelSubService Level = "sub_service"

	// LevelSubSubService addresses a sub-sub-service ("sss:<id>").
	LevelSubSubService Level = "sub_sub_service"
)

// Ref is a parsed permission identifier: one tier plus the numeric id of
// the catalog entry at that tier.
type Ref struct {
	Level     Level
	NumericID int
}

// Parse parses a permission id string. The accepted grammar is exactly
// ^(s|ss|sss):(\d+)$ — no surrounding whitespace, no trailing characters,
// no signs. Anything else returns ok == false.
func Parse(s string) (Ref, bool) {
	sep := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(s)-1 {
		return Ref{}, false
	}

	var level Level
	switch s[:sep] {
	case "s":
		level = LevelService
	case "ss":
		level = LevelSubService
	case "sss":
		level = LevelSubSubService
	default:
		return Ref{}, false
	}

	digits := s[sep+1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Ref{}, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// All-digit but does not fit an int.
		return Ref{}, false
	}
	return Ref{Level: level, NumericID: n}, true
}

// String formats the canonical wire form of the ref.
func (r Ref) String() string {
	switch r.Level {
	case LevelService:
		return "s:" + strconv.Itoa(r.NumericID)
	case LevelSubService:
		return "ss:" + strconv.Itoa(r.NumericID)
	case LevelSubSubService:
		return "sss:" + strconv.Itoa(r.NumericID)
	default:
		return ""
	}
}

// Fields is the storage representation of a permission ref: exactly one of
// the three id columns is non-nil, the other two are nil. Grant and
// exception records carry this triple verbatim.
type Fields struct {
	ServiceID       *int
	SubServiceID    *int
	SubSubServiceID *int
}

// Fields expands the ref into its one-non-null/two-null storage triple.
func (r Ref) Fields() Fields {
	n := r.NumericID
	switch r.Level {
	case LevelService:
		return Fields{ServiceID: &n}
	case LevelSubService:
		return Fields{SubServiceID: &n}
	case LevelSubSubService:
		return Fields{SubSubServiceID: &n}
	default:
		return Fields{}
	}
}

// FromFields recovers a ref from a stored triple. A row with zero or with
// more than one non-nil id field is malformed; it yields ok == false and
// callers skip it rather than fail.
func FromFields(f Fields) (Ref, bool) {
	var (
		level Level
		value int
		seen  int
	)
	if f.ServiceID != nil {
		level, value = LevelService, *f.ServiceID
		seen++
	}
	if f.SubServiceID != nil {
		level, value = LevelSubService, *f.SubServiceID
		seen++
	}
	if f.SubSubServiceID != nil {
		level, value = LevelSubSubService, *f.SubSubServiceID
		seen++
	}
	if seen != 1 || value < 0 {
		return Ref{}, false
	}
	return Ref{Level: level, NumericID: value}, true
}
