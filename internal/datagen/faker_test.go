//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(1, 4)
		if v < 1 || v > 4 {
			t.Errorf("Int(1, 4) returned %d", v)
		}
	}
}

func TestFakerMoney(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		m := f.Money(2.5, 8.5)
		if !m.Equal(m.Round(2)) {
			t.Errorf("Money not rounded to cents: %s", m)
		}
		if m.InexactFloat64() < 2.5 || m.InexactFloat64() > 8.5 {
			t.Errorf("Money(2.5, 8.5) returned %s", m)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)

	d := f.DateRange(start, end)
	if d.Before(start) || d.After(end) {
		t.Errorf("DateRange returned %v outside [%v, %v]", d, start, end)
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"CreditCard", "Cash", "MobilePayment"}

	for i := 0; i < 50; i++ {
		got := Choose(f, items)
		found := false
		for _, item := range items {
			if item == got {
				found = true
			}
		}
		if !found {
			t.Errorf("Choose returned unknown item %q", got)
		}
	}

	if got := Choose(f, []int{}); got != 0 {
		t.Errorf("Choose on empty slice returned %d", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []string{"purchase", "refund"}
	weights := []int{100, 0}

	for i := 0; i < 50; i++ {
		if got := ChooseWeighted(f, items, weights); got != "purchase" {
			t.Fatalf("Expected 'purchase' with zero refund weight, got %q", got)
		}
	}
}

func TestSample(t *testing.T) {
	f := NewFakerWithSeed(42)
	items := []int{1, 2, 3, 4, 5}

	got := Sample(f, items, 3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Errorf("Sample returned duplicate %d", v)
		}
		seen[v] = true
	}

	if got := Sample(f, items, 10); len(got) != len(items) {
		t.Errorf("Expected sample capped at %d, got %d", len(items), len(got))
	}
}

func TestShuffle(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}

	got := Shuffle(NewFakerWithSeed(7), items)
	if len(got) != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), len(got))
	}
	if items[0] != "a" || items[5] != "f" {
		t.Errorf("Shuffle modified its input: %v", items)
	}
	seen := map[string]bool{}
	for _, v := range got {
		seen[v] = true
	}
	if len(seen) != len(items) {
		t.Errorf("Expected a permutation, got %v", got)
	}

	again := Shuffle(NewFakerWithSeed(7), items)
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("Same seed produced different orders: %v != %v", got, again)
		}
	}
}

func TestPadInt(t *testing.T) {
	if got := PadInt(7, 3); got != "007" {
		t.Errorf("Expected '007', got '%s'", got)
	}
	if got := PadInt(12345, 3); got != "12345" {
		t.Errorf("Expected '12345', got '%s'", got)
	}
}
