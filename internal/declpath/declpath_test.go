package declpath

import "testing"

func TestQNameAddIsPersistent(t *testing.T) {
	base := NewQName("a", "b")
	grown := base.Add("c")

	if base.String() != "a.b" {
		t.Errorf("base mutated by Add: %s", base)
	}
	if grown.String() != "a.b.c" {
		t.Errorf("Add = %s, want a.b.c", grown)
	}
	if !grown.Equal(NewQName("a", "b", "c")) {
		t.Errorf("structural equality failed for %s", grown)
	}
}

func TestQNameAddAssociatesLeftToRight(t *testing.T) {
	q := NewQName("root").Add("x").Add("y").Add("z")
	if q.String() != "root.x.y.z" {
		t.Errorf("chained Add = %s, want root.x.y.z", q)
	}
}

func TestParseQName(t *testing.T) {
	tests := []struct {
		in   string
		want QName
	}{
		{"", NewQName()},
		{"foo", NewQName("foo")},
		{"a.b.c", NewQName("a", "b", "c")},
	}
	for _, tt := range tests {
		if got := ParseQName(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseQName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocationAddThenReplaceLast(t *testing.T) {
	loc := NewLocation("lib", NewQName("ns", "Inner"))
	replaced := loc.Add("Temp").ReplaceLast("Final")

	want := NewLocation("lib", NewQName("ns", "Inner", "Final"))
	if !replaced.Equal(want) {
		t.Errorf("Add+ReplaceLast = %s, want %s", replaced, want)
	}
	// Original untouched.
	if !loc.Equal(NewLocation("lib", NewQName("ns", "Inner"))) {
		t.Errorf("original location mutated: %s", loc)
	}
}

func TestAbsentLocationPanicsOnForce(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic when forcing an absent location")
		}
		if _, ok := r.(ContractViolation); !ok {
			t.Fatalf("panic value is %T, want ContractViolation", r)
		}
	}()
	NoLocation().Path()
}

func TestLocationEquality(t *testing.T) {
	a := NewLocation("lib", NewQName("X"))
	b := NewLocation("lib", NewQName("X"))
	c := NewLocation("other", NewQName("X"))

	if !a.Equal(b) {
		t.Error("identical locations compare unequal")
	}
	if a.Equal(c) {
		t.Error("locations in different libraries compare equal")
	}
	if a.Equal(NoLocation()) || !NoLocation().Equal(NoLocation()) {
		t.Error("absent-location equality is wrong")
	}
}
