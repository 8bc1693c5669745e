package pos

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fourthcoffee/fc-commerce/internal/datagen"
	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// ErrNoSource is returned when there is neither a transaction to replay nor
// the reference data needed to make one up.
var ErrNoSource = errors.New("no predefined transactions and no reference data")

var (
	transactionTypes = []string{models.TransactionPurchase, models.TransactionRefund}
	paymentMethods   = []string{"CreditCard", "Cash", "MobilePayment"}
)

// Generator replays predefined transactions exactly once, in order, and
// then produces random transactions indefinitely. It is not safe for
// concurrent use.
type Generator struct {
	predefined []models.Transaction
	next       int
	ref        *Reference
	faker      *datagen.Faker
	now        func() time.Time
	emitted    int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes random transactions reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.faker = datagen.NewFakerFromSeed(seed)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator. It fails with ErrNoSource when it could
// not produce a single transaction.
func NewGenerator(predefined []models.Transaction, ref *Reference, opts ...Option) (*Generator, error) {
	if len(predefined) == 0 && !ref.CanGenerate() {
		return nil, ErrNoSource
	}
	g := &Generator{
		predefined: predefined,
		ref:        ref,
		faker:      datagen.NewFaker(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Replaying reports whether predefined transactions remain.
func (g *Generator) Replaying() bool {
	return g.next < len(g.predefined)
}

// Emitted returns the number of transactions produced so far.
func (g *Generator) Emitted() int64 {
	return g.emitted
}

// Next returns the next transaction.
func (g *Generator) Next() (models.Transaction, error) {
	if g.Replaying() {
		tx := g.predefined[g.next]
		g.next++
		g.emitted++
		return tx, nil
	}
	if !g.ref.CanGenerate() {
		return models.Transaction{}, fmt.Errorf("predefined transactions exhausted: %w", ErrNoSource)
	}
	tx := g.Random()
	g.emitted++
	return tx, nil
}

// Random builds a random transaction from the reference data. The caller
// must ensure the reference data can generate.
func (g *Generator) Random() models.Transaction {
	f := g.faker
	customer := datagen.Choose(f, g.ref.Customers)
	airport := customer.Airport()

	// Shops at the customer's airport, or any shop when there are none.
	var shops []models.Shop
	for _, s := range g.ref.Shops {
		if s.AirportID == airport {
			shops = append(shops, s)
		}
	}
	if len(shops) == 0 {
		shops = g.ref.Shops
	}
	shop := datagen.Choose(f, shops)
	if airport == "" {
		airport = shop.AirportID
	}

	txType := datagen.Choose(f, transactionTypes)
	payment := datagen.Choose(f, paymentMethods)

	selected := datagen.Sample(f, g.ref.Menu, f.Int(1, 4))
	items := make([]models.TransactionItem, 0, len(selected))
	total := decimal.Zero

	for _, m := range selected {
		qty := f.Int(1, 3)
		price := m.Price
		size := ""
		if len(m.Sizes) > 0 {
			opt := datagen.Choose(f, m.Sizes)
			price = opt.Price
			size = opt.Size
		}
		unit := decimal.NewFromFloat(price)
		line := unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		total = total.Add(line)

		items = append(items, models.TransactionItem{
			MenuItemID: m.MenuItemID,
			Name:       m.Name,
			Category:   m.Category,
			Quantity:   qty,
			UnitPrice:  unit.InexactFloat64(),
			TotalPrice: line.InexactFloat64(),
			Size:       size,
		})
	}
	total = total.Round(2)

	earned, redeemed := 0, 0
	status := models.StatusRefunded
	if txType == models.TransactionPurchase {
		status = models.StatusCompleted
		earned = int(total.IntPart())
		redeemed = f.Int(0, max(0, min(10, customer.LoyaltyPoints)))
	}

	ts := g.now().UTC().Add(-time.Duration(f.Int(1, 10000)) * time.Minute)
	id := "txn-" + datagen.PadInt(f.Int(10000, 99999), 5)

	return models.Transaction{
		ID:                    id,
		TransactionID:         id,
		Timestamp:             ts.Format(time.RFC3339),
		CustomerID:            customer.CustomerID,
		ShopID:                shop.ShopID,
		AirportID:             airport,
		TransactionType:       txType,
		Items:                 items,
		TotalAmount:           total.InexactFloat64(),
		PaymentMethod:         payment,
		LoyaltyPointsEarned:   earned,
		LoyaltyPointsRedeemed: redeemed,
		Status:                status,
		Metadata: models.TransactionMetadata{
			DeviceID:    "pos-terminal-" + datagen.PadInt(f.Int(1, 15), 2),
			EmployeeID:  "emp-" + datagen.PadInt(f.Int(100, 999), 3),
			OrderNumber: fmt.Sprintf("ORD-%s-%d", ts.Format("20060102"), f.Int(1000, 9999)),
		},
		PartitionKey: shop.ShopID,
	}
}
