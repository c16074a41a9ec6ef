package domain

import "testing"

func TestShelfSlotGoldenBand(t *testing.T) {
	if !(&ShelfSlot{Band: "eye"}).GoldenBand() || !(&ShelfSlot{Band: "reach"}).GoldenBand() {
		t.Fatalf("eye and reach are the golden band")
	}
	if (&ShelfSlot{Band: "stretch"}).GoldenBand() || (&ShelfSlot{Band: "stoop"}).GoldenBand() {
		t.Fatalf("stretch and stoop are outside the golden band")
	}
	var nilSlot *ShelfSlot
	if nilSlot.GoldenBand() {
		t.Fatalf("nil slot must be false")
	}
}

func TestProductMargin(t *testing.T) {
	p := &Product{Price: 10, Cost: 4}
	if got := p.Margin(); got != 0.6 {
		t.Fatalf("expected 0.6 margin, got %v", got)
	}
	if (&Product{Price: 0, Cost: 4}).Margin() != 0 {
		t.Fatalf("zero price must yield zero margin")
	}
}
