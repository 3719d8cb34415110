package models

import "testing"

func TestKeyFor(t *testing.T) {
	t.Run("Case Insensitive", func(t *testing.T) {
		a := KeyFor(Track{Title: "Blinding Lights", Artist: "The Weeknd"})
		b := KeyFor(Track{Title: "BLINDING LIGHTS", Artist: "the weeknd"})
		if a != b {
			t.Errorf("expected equal keys, got %q and %q", a, b)
		}
	})

	t.Run("Whitespace Insensitive", func(t *testing.T) {
		a := KeyFor(Track{Title: "Blinding Lights", Artist: "The Weeknd"})
		b := KeyFor(Track{Title: "  Blinding   Lights ", Artist: " The  Weeknd"})
		if a != b {
			t.Errorf("expected equal keys, got %q and %q", a, b)
		}
	})

	t.Run("Title And Artist Do Not Collide", func(t *testing.T) {
		a := KeyFor(Track{Title: "One Two", Artist: "Three"})
		b := KeyFor(Track{Title: "One", Artist: "Two Three"})
		if a == b {
			t.Error("field boundary must be preserved in the key")
		}
	})

	t.Run("Distinct Tracks Distinct Keys", func(t *testing.T) {
		a := KeyFor(Track{Title: "One", Artist: "A"})
		b := KeyFor(Track{Title: "Two", Artist: "A"})
		if a == b {
			t.Error("different titles must produce different keys")
		}
	})
}

func TestRunStatusFail(t *testing.T) {
	status := &RunStatus{Outcome: OutcomeRunning}
	status.Fail("fetch failed: api down")

	if status.Outcome != OutcomeFailure {
		t.Errorf("expected failure, got %s", status.Outcome)
	}
	if len(status.Errors) != 1 || status.Errors[0] != "fetch failed: api down" {
		t.Errorf("expected the message appended, got %v", status.Errors)
	}

	status.Fail("second")
	if len(status.Errors) != 2 {
		t.Errorf("expected messages to accumulate, got %v", status.Errors)
	}
}
