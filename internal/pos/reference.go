// Package pos produces synthetic point-of-sale transactions for the event
// stream.
package pos

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// Reference is the seed data random transactions are drawn from.
type Reference struct {
	Customers []models.Customer
	Shops     []models.Shop
	Menu      []models.ReferenceMenuItem
}

// CanGenerate reports whether random transactions can be produced.
func (r *Reference) CanGenerate() bool {
	return r != nil && len(r.Customers) > 0 && len(r.Shops) > 0 && len(r.Menu) > 0
}

// LoadReference reads customers, shops and menu from JSON array files.
// Missing files yield empty lists so the caller can decide whether replay
// alone is enough.
func LoadReference(customersFile, shopsFile, menuFile string) (*Reference, error) {
	ref := &Reference{}
	var err error

	if ref.Customers, err = readJSONArray[models.Customer](customersFile); err != nil {
		return nil, err
	}
	if ref.Shops, err = readJSONArray[models.Shop](shopsFile); err != nil {
		return nil, err
	}
	if ref.Menu, err = readJSONArray[models.ReferenceMenuItem](menuFile); err != nil {
		return nil, err
	}

	logging.Debug().
		Int("customers", len(ref.Customers)).
		Int("shops", len(ref.Shops)).
		Int("menu_items", len(ref.Menu)).
		Msg("Loaded reference data")

	return ref, nil
}

// LoadTransactions reads the predefined transactions to replay. A missing
// file means there is nothing to replay.
func LoadTransactions(path string) ([]models.Transaction, error) {
	return readJSONArray[models.Transaction](path)
}

func readJSONArray[T any](path string) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn().
			Str("file", path).
			Msg("Data file not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}
