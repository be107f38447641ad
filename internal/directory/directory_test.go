package directory

import (
	"context"
	"errors"
	"testing"
)

// fakeLookup returns canned entries, or an error when failing is set.
type fakeLookup struct {
	entries []Entry
	failing bool
}

func (f *fakeLookup) Search(_ context.Context, query string) ([]Entry, error) {
	if f.failing {
		return nil, errors.New("directory unreachable")
	}
	var out []Entry
	for _, e := range f.entries {
		if e.Username == query {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestVerify(t *testing.T) {
	lookup := &fakeLookup{entries: []Entry{{Username: "jdoe"}}}
	ctx := context.Background()

	if !Verify(ctx, lookup, "jdoe") {
		t.Error("expected known username to verify")
	}
	if Verify(ctx, lookup, "nobody") {
		t.Error("expected unknown username to fail")
	}
	if Verify(ctx, lookup, "") {
		t.Error("expected empty username to fail")
	}
	if Verify(ctx, nil, "jdoe") {
		t.Error("expected nil lookup to fail")
	}
}

func TestVerifyLookupFailureCountsAsAbsent(t *testing.T) {
	lookup := &fakeLookup{entries: []Entry{{Username: "jdoe"}}, failing: true}

	if Verify(context.Background(), lookup, "jdoe") {
		t.Error("expected lookup failure to count as absent")
	}
}

func TestClassify(t *testing.T) {
	rules := Rules{
		StaffGroups:  []string{"lostfound-staff"},
		MemberGroups: []string{"lostfound-attendants"},
	}

	tests := []struct {
		name      string
		groups    []string
		wantStaff bool
		wantOK    bool
	}{
		{"staff group", []string{"lostfound-staff"}, true, true},
		{"member group", []string{"lostfound-attendants"}, false, true},
		{"both groups", []string{"lostfound-staff", "lostfound-attendants"}, true, true},
		{"no groups", nil, false, false},
		{"unrelated groups", []string{"chess-club"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff, active := rules.Classify(tt.groups)
			if staff != tt.wantStaff || active != tt.wantOK {
				t.Errorf("Classify(%v) = staff=%v active=%v, want staff=%v active=%v",
					tt.groups, staff, active, tt.wantStaff, tt.wantOK)
			}
		})
	}
}
