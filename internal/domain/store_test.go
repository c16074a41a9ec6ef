package domain

import (
	"testing"

	"github.com/google/uuid"
)

func rect(x, z, w, d float64) *Zone {
	return &Zone{ID: uuid.New(), X: x, Z: z, Width: w, Depth: d}
}

func TestZoneAdjacent(t *testing.T) {
	base := rect(0, 0, 10, 10)

	touching := rect(10, 2, 5, 5)
	if !base.Adjacent(touching) {
		t.Fatalf("zones sharing an edge must be adjacent")
	}
	if !touching.Adjacent(base) {
		t.Fatalf("adjacency must be symmetric")
	}

	gapped := rect(11, 0, 5, 5)
	if base.Adjacent(gapped) {
		t.Fatalf("zones with a gap are not adjacent")
	}

	cornerOnly := rect(10, 10, 5, 5)
	if base.Adjacent(cornerOnly) {
		t.Fatalf("a shared corner without edge overlap is not adjacent")
	}

	if base.Adjacent(base) {
		t.Fatalf("a zone is never adjacent to itself")
	}
	if base.Adjacent(nil) {
		t.Fatalf("nil comparisons must be false")
	}
}

func TestZoneTypeHelpers(t *testing.T) {
	if !(&Zone{Type: "entrance"}).IsEntrance() || (&Zone{Type: "display"}).IsEntrance() {
		t.Fatalf("IsEntrance mismatch")
	}
	if !(&Zone{Type: "checkout"}).IsCheckout() || (&Zone{Type: "aisle"}).IsCheckout() {
		t.Fatalf("IsCheckout mismatch")
	}
}
