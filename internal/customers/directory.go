package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// ErrSuperseded is returned by Directory.Search when a newer search
// started before this one finished. Its results were discarded.
var ErrSuperseded = errors.New("search superseded by a newer search")

// Page-state messages.
const (
	MsgNoCustomers = "No customers found. Please ensure your customer data is available."
)

// DirectoryOptions tunes a Directory.
type DirectoryOptions struct {
	RandomCount int
	Debounce    time.Duration
	SearchLimit int
}

// State is a snapshot of the page.
type State struct {
	Customers []models.Customer `json:"customers"`
	Selected  *models.Customer  `json:"selected,omitempty"`
	Message   string            `json:"message,omitempty"`
	Source    string            `json:"source"`
}

// Directory holds the customer list, the current selection and the
// typeahead search. Only the most recent search may change the list.
type Directory struct {
	svc  Service
	opts DirectoryOptions

	mu        sync.Mutex
	customers []models.Customer
	selected  *models.Customer
	message   string

	searchSeq    uint64
	cancelSearch context.CancelFunc
}

// NewDirectory creates an empty directory over svc.
func NewDirectory(svc Service, opts DirectoryOptions) *Directory {
	if opts.RandomCount <= 0 {
		opts.RandomCount = 5
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	return &Directory{svc: svc, opts: opts}
}

// Load replaces the list with a fresh random set and clears the selection.
// A search still in flight is cancelled and its results are discarded.
func (d *Directory) Load(ctx context.Context) error {
	customers, err := d.svc.RandomCustomers(ctx, d.opts.RandomCount)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.searchSeq++
	if d.cancelSearch != nil {
		d.cancelSearch()
		d.cancelSearch = nil
	}

	d.selected = nil
	if err != nil {
		d.customers = nil
		d.message = fmt.Sprintf("Unable to load customers: %v", err)
		logging.Error().Err(err).Msg("Error loading customers")
		return err
	}
	d.customers = customers
	d.message = ""
	if len(customers) == 0 {
		d.message = MsgNoCustomers
	}
	return nil
}

// Filter returns the loaded customers matching term. A blank term returns
// the whole list.
func (d *Directory) Filter(term string) []models.Customer {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []models.Customer{}
	for _, c := range d.customers {
		if c.Matches(term) {
			out = append(out, c)
		}
	}
	return out
}

// Select makes id the current customer, looking in the loaded list first
// and asking the service otherwise. A blank id clears the selection. An
// unknown id returns nil and leaves nothing selected.
func (d *Directory) Select(ctx context.Context, id string) (*models.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		d.mu.Lock()
		d.selected = nil
		d.mu.Unlock()
		return nil, nil
	}

	d.mu.Lock()
	for i := range d.customers {
		if d.customers[i].HasID(id) {
			c := d.customers[i]
			d.selected = &c
			d.mu.Unlock()
			return &c, nil
		}
	}
	d.mu.Unlock()

	c, err := d.svc.CustomerByID(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.message = fmt.Sprintf("Error loading customer details: %v", err)
		logging.Error().Err(err).Str("customer_id", id).Msg("Error loading customer")
		return nil, err
	}
	d.selected = c
	return c, nil
}

// Search waits for the debounce delay and then queries the service. A new
// call cancels the one in flight; a response that is no longer the latest
// is discarded with ErrSuperseded. Results are merged into the list by key.
func (d *Directory) Search(ctx context.Context, term string) ([]models.Customer, error) {
	term = strings.TrimSpace(term)

	d.mu.Lock()
	d.searchSeq++
	seq := d.searchSeq
	if d.cancelSearch != nil {
		d.cancelSearch()
	}
	sctx, cancel := context.WithCancel(ctx)
	d.cancelSearch = cancel
	d.mu.Unlock()
	defer cancel()

	if term == "" {
		return d.Filter(""), nil
	}

	if d.opts.Debounce > 0 {
		timer := time.NewTimer(d.opts.Debounce)
		select {
		case <-sctx.Done():
			timer.Stop()
			return nil, d.cancelled(ctx, seq)
		case <-timer.C:
		}
	}

	results, err := d.svc.Search(sctx, term, d.opts.SearchLimit)

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.searchSeq {
		return nil, ErrSuperseded
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Error().Err(err).Str("term", term).Msg("Customer search failed")
		return nil, err
	}

	d.customers = Merge(d.customers, results)
	return results, nil
}

func (d *Directory) cancelled(ctx context.Context, seq uint64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.searchSeq {
		return ErrSuperseded
	}
	return context.Canceled
}

// State returns a copy of the page state.
func (d *Directory) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := State{
		Customers: append([]models.Customer{}, d.customers...),
		Message:   d.message,
		Source:    d.svc.Source(),
	}
	if d.selected != nil {
		c := *d.selected
		st.Selected = &c
	}
	return st
}

// Merge replaces entries of list that share a key with an update and
// appends the rest, preserving order.
func Merge(list, updates []models.Customer) []models.Customer {
	out := append([]models.Customer{}, list...)
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].Key()] = i
	}
	for _, c := range updates {
		if i, ok := index[c.Key()]; ok {
			out[i] = c
			continue
		}
		index[c.Key()] = len(out)
		out = append(out, c)
	}
	return out
}
