package uuid

import "testing"

func TestMustNewProducesValidV4(t *testing.T) {
	u := MustNew()

	if u.IsZero() {
		t.Fatal("MustNew returned the zero UUID")
	}
	if got := u[6] >> 4; got != 4 {
		t.Fatalf("version nibble = %d, want 4", got)
	}
	if got := u[8] >> 6; got != 2 {
		t.Fatalf("variant bits = %b, want 10", got)
	}
}

func TestMustNewIsUnique(t *testing.T) {
	if MustNew() == MustNew() {
		t.Fatal("two MustNew calls returned the same UUID")
	}
}

func TestParseRoundTrip(t *testing.T) {
	u := MustNew()

	parsed, err := Parse(u.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", u.String(), err)
	}
	if parsed != u {
		t.Fatalf("round trip changed the UUID: %s != %s", parsed, u)
	}
}
