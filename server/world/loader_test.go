package world

import (
	"testing"

	"github.com/dm-vev/ferrite/server/world/chunk"
)

func TestLoaderMoveFirstCallLoadsFullWindow(t *testing.T) {
	l := NewLoader(1, 1)
	changed, loads, unloads := l.Move(chunk.ColumnPos{X: 0, Z: 0})
	if !changed {
		t.Fatal("expected first Move to report a change")
	}
	if len(unloads) != 0 {
		t.Fatalf("expected no unloads on first move, got %v", unloads)
	}
	if len(loads) != 9 {
		t.Fatalf("expected a 3x3 window (9 columns), got %d", len(loads))
	}
	if loads[0] != (chunk.ColumnPos{X: 0, Z: 0}) {
		t.Fatalf("expected nearest-first ordering to start at center, got %v", loads[0])
	}
}

func TestLoaderMoveSameCenterIsNoOp(t *testing.T) {
	l := NewLoader(1, 1)
	l.Move(chunk.ColumnPos{X: 0, Z: 0})
	changed, loads, unloads := l.Move(chunk.ColumnPos{X: 0, Z: 0})
	if changed || loads != nil || unloads != nil {
		t.Fatalf("expected no-op on unchanged center, got changed=%v loads=%v unloads=%v", changed, loads, unloads)
	}
}

func TestLoaderMoveDiffsWindowOnShift(t *testing.T) {
	l := NewLoader(1, 1)
	l.Move(chunk.ColumnPos{X: 0, Z: 0})
	_, loads, unloads := l.Move(chunk.ColumnPos{X: 1, Z: 0})

	for _, p := range unloads {
		if p.X >= 0 {
			t.Fatalf("unloaded column %v should have fallen outside the new window", p)
		}
	}
	for _, p := range loads {
		if p.X < 1 {
			t.Fatalf("loaded column %v should be newly in range of the shifted window", p)
		}
	}
	if !l.Loaded(chunk.ColumnPos{X: 1, Z: 0}) {
		t.Fatal("expected new center to be loaded after the shift")
	}
	if l.Loaded(chunk.ColumnPos{X: -1, Z: 0}) {
		t.Fatal("expected column that fell out of range to be unloaded")
	}
}

func TestLoaderRemoveDrainsLoadedSet(t *testing.T) {
	l := NewLoader(1, 1)
	l.Move(chunk.ColumnPos{X: 5, Z: 5})
	removed := l.Remove()
	if len(removed) != 9 {
		t.Fatalf("expected Remove to drain all 9 loaded columns, got %d", len(removed))
	}
	if l.Loaded(chunk.ColumnPos{X: 5, Z: 5}) {
		t.Fatal("expected loaded set to be empty after Remove")
	}
}
