package sync

import (
	"errors"
	"testing"
)

func TestRunRegistry(t *testing.T) {
	t.Run("Begin blocks a second run for the same institution", func(t *testing.T) {
		r := NewRunRegistry()

		runID, ok := r.Begin(1)
		if !ok || runID == "" {
			t.Fatalf("Begin() = %q, %v; want a run id", runID, ok)
		}

		if _, ok := r.Begin(1); ok {
			t.Error("Begin() allowed an overlapping run")
		}

		// A different institution is unaffected.
		if _, ok := r.Begin(2); !ok {
			t.Error("Begin() blocked an unrelated institution")
		}
	})

	t.Run("End releases the guard and records the outcome", func(t *testing.T) {
		r := NewRunRegistry()

		r.Begin(1)
		r.End(1, nil)

		statuses := r.Snapshot()
		if len(statuses) != 1 {
			t.Fatalf("Snapshot() = %d statuses, want 1", len(statuses))
		}
		if statuses[0].State != RunStateSucceeded {
			t.Errorf("State = %s, want succeeded", statuses[0].State)
		}
		if statuses[0].FinishedAt == nil {
			t.Error("FinishedAt not set")
		}

		if _, ok := r.Begin(1); !ok {
			t.Error("Begin() still blocked after End()")
		}
	})

	t.Run("Failed run keeps the error message", func(t *testing.T) {
		r := NewRunRegistry()

		r.Begin(5)
		r.End(5, errors.New("provider unavailable"))

		statuses := r.Snapshot()
		if statuses[0].State != RunStateFailed {
			t.Errorf("State = %s, want failed", statuses[0].State)
		}
		if statuses[0].Error != "provider unavailable" {
			t.Errorf("Error = %q, want provider unavailable", statuses[0].Error)
		}
	})

	t.Run("End without Begin is a no-op", func(t *testing.T) {
		r := NewRunRegistry()
		r.End(9, nil)
		if len(r.Snapshot()) != 0 {
			t.Error("Snapshot() not empty after stray End()")
		}
	})
}
