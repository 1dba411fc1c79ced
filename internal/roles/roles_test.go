package roles

import "testing"

func TestRoundTripAllRoles(t *testing.T) {
	for _, storage := range All() {
		display := FromStorage(storage)
		if got := ToStorage(display); got != storage {
			t.Errorf("round trip %q: got %q via display %q", storage, got, display)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	cases := map[string]string{
		"Dancer":          "DANCER",
		"DJ":              "DJ",
		"MC":              "MC",
		"Graffiti Artist": "GRAFFITI_ARTIST",
	}
	for display, storage := range cases {
		if got := ToStorage(display); got != storage {
			t.Errorf("ToStorage(%q) = %q, want %q", display, got, storage)
		}
		if got := FromStorage(storage); got != display {
			t.Errorf("FromStorage(%q) = %q, want %q", storage, got, display)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, r := range All() {
		if !IsValid(r) {
			t.Errorf("IsValid(%q) = false", r)
		}
	}
	for _, r := range []string{"", "GOAT", "dancer", "Dancer", "DANCER "} {
		if IsValid(r) {
			t.Errorf("IsValid(%q) = true", r)
		}
	}
}

func TestUnknownInputsStayInvalid(t *testing.T) {
	// ToStorage on an unknown display string must not produce a valid role.
	if IsValid(ToStorage("Goat Herder")) {
		t.Fatal("unknown display string became a valid role")
	}
}
