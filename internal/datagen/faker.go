//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen provides synthetic data generation for the lab.
package datagen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// Faker provides fake data generation using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// NewFakerFromSeed uses seed when non-zero and a random seed otherwise.
func NewFakerFromSeed(seed uint64) *Faker {
	if seed == 0 {
		return NewFaker()
	}
	return NewFakerWithSeed(seed)
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Bool generates a random boolean.
func (f *Faker) Bool() bool {
	return f.faker.Bool()
}

// Money generates an amount between min and max rounded to cents.
func (f *Faker) Money(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(f.Float64(min, max)).Round(2)
}

// DateRange generates a random time within a range.
func (f *Faker) DateRange(start, end time.Time) time.Time {
	return f.faker.DateRange(start, end)
}

// Reader returns a byte source derived from the faker, for seeding other
// generators such as UUIDs.
func (f *Faker) Reader() *rand.Rand {
	return rand.New(rand.NewSource(int64(f.faker.Uint64())))
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Shuffle returns a shuffled copy of items. The input is not modified.
func Shuffle[T any](f *Faker, items []T) []T {
	out := append([]T(nil), items...)
	f.faker.ShuffleAnySlice(out)
	return out
}

// Sample returns up to n distinct elements of items in random order.
func Sample[T any](f *Faker, items []T, n int) []T {
	n = max(0, min(n, len(items)))
	return Shuffle(f, items)[:n]
}

// PadInt formats n with leading zeros to width digits.
func PadInt(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
