//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package customers provides access to loyalty customers, either from a
// document store or from a local JSON file, and the page state of the
// customer picker.
package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// ErrStoreUnavailable wraps failures talking to the document store.
var ErrStoreUnavailable = errors.New("customer store unavailable")

// Source names reported by Service.Source.
const (
	SourceDocumentStore = "document store"
	SourceLocalFile     = "local file"
)

// Service is the customer data-access contract.
type Service interface {
	// RandomCustomers returns up to n customers in random order.
	RandomCustomers(ctx context.Context, n int) ([]models.Customer, error)

	// CustomerByID matches id or customerId. An unknown id returns nil, nil.
	CustomerByID(ctx context.Context, id string) (*models.Customer, error)

	AllCustomers(ctx context.Context) ([]models.Customer, error)

	// Search returns up to limit customers whose name, email, customerId
	// or id contains term, ignoring case.
	Search(ctx context.Context, term string, limit int) ([]models.Customer, error)

	Source() string
	Close(ctx context.Context) error
}

// IsPlaceholder reports whether endpoint is unset or still carries a
// template placeholder.
func IsPlaceholder(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	return endpoint == "" || strings.Contains(endpoint, "YOUR_")
}

// NewService picks the document store when an endpoint is configured and
// reachable and the local JSON file otherwise.
func NewService(ctx context.Context, cfg config.CustomersConfig) Service {
	local := NewLocalJSONService(cfg.LocalFile)

	if IsPlaceholder(cfg.Endpoint) {
		logging.Info().
			Str("file", cfg.LocalFile).
			Msg("No document store configured, using local customer data")
		return local
	}

	svc, err := NewDocumentService(ctx, cfg)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("file", cfg.LocalFile).
			Msg("Document store unavailable, falling back to local customer data")
		return local
	}

	logging.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("Using document store for customer data")
	return svc
}
