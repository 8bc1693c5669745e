package fabric

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// CreateFunc creates an item.
type CreateFunc func(ctx context.Context) (*Item, error)

// ListFunc lists the items of one kind.
type ListFunc func(ctx context.Context) ([]Item, error)

// IsLROStatusError reports whether err is the status-polling failure after
// which the item may still have been created.
func IsLROStatusError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrLROStatus) ||
		strings.Contains(strings.ToLower(err.Error()), strings.ToLower(ErrLROStatus.Error()))
}

// EnsureItem creates an item. When creation fails only because its
// operation status could not be read, the item is looked up by display
// name instead. Other errors are returned unchanged.
func EnsureItem(ctx context.Context, name string, create CreateFunc, list ListFunc) (*Item, error) {
	item, err := create(ctx)
	if err == nil {
		return item, nil
	}
	if !IsLROStatusError(err) {
		return nil, err
	}

	logging.Warn().
		Err(err).
		Str("name", name).
		Msg("LRO status failure while creating item; attempting lookup")

	items, lerr := list(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("failed to look up %q after LRO failure: %w", name, lerr)
	}
	for i := range items {
		if items[i].DisplayName == name {
			logging.Info().
				Str("name", name).
				Str("id", items[i].ID).
				Msg("Recovered item after LRO failure")
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("failed to create or retrieve %q: %w", name, err)
}

// FindOrCreate returns the listed item with the given name, creating it
// through EnsureItem when absent.
func FindOrCreate(ctx context.Context, name string, create CreateFunc, list ListFunc) (*Item, bool, error) {
	items, err := list(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range items {
		if items[i].DisplayName == name {
			return &items[i], false, nil
		}
	}
	item, err := EnsureItem(ctx, name, create, list)
	return item, err == nil, err
}

// ResourceIDs is the summary written after provisioning.
type ResourceIDs struct {
	WorkspaceName string
	WorkspaceID   string
	CapacityID    string
	Items         map[string]string
	GeneratedAt   time.Time
}

// WriteResourceIDs writes a human-readable summary of provisioned IDs.
func WriteResourceIDs(path string, ids ResourceIDs) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fourth Coffee resource IDs (%s)\n", ids.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Workspace Name: %s\n", ids.WorkspaceName)
	fmt.Fprintf(&b, "Workspace ID: %s\n", ids.WorkspaceID)
	if ids.CapacityID != "" {
		fmt.Fprintf(&b, "Capacity ID: %s\n", ids.CapacityID)
	}

	keys := make([]string, 0, len(ids.Items))
	for k := range ids.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s ID: %s\n", k, ids.Items[k])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
