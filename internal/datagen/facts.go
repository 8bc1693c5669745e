package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// Fact CSV file names, as read by the warehouse loader.
const (
	FactSalesFile     = "FactSales.csv"
	FactLineItemsFile = "FactSalesLineItem.csv"
)

// Payment and size mixes, weighted toward cards and medium drinks.
var (
	paymentMethods = []string{"Credit Card", "Debit Card", "Mobile Pay", "Cash", "Gift Card"}
	paymentWeights = []int{40, 25, 20, 10, 5}
	drinkSizes     = []string{"Small", "Medium", "Large"}
	sizeWeights    = []int{25, 50, 25}
)

// FactConfig controls synthetic sales generation.
type FactConfig struct {
	Transactions int
	EndDate      time.Time
	Days         int
	Shops        int
	MenuItems    int
	Customers    int
	OpenHour     int
	CloseHour    int
	MaxLines     int
	Seed         uint64
}

// DefaultFactConfig returns the lab's standard data set: 2,000 sales over
// the 60 days ending 2025-10-21.
func DefaultFactConfig() FactConfig {
	return FactConfig{
		Transactions: 2000,
		EndDate:      time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC),
		Days:         60,
		Shops:        20,
		MenuItems:    50,
		Customers:    500,
		OpenHour:     8,
		CloseHour:    22,
		MaxLines:     3,
	}
}

// Validate checks the config for impossible ranges.
func (c FactConfig) Validate() error {
	switch {
	case c.Transactions < 1:
		return fmt.Errorf("transactions must be at least 1")
	case c.Days < 0:
		return fmt.Errorf("days must be non-negative")
	case c.Shops < 1 || c.MenuItems < 1 || c.Customers < 1:
		return fmt.Errorf("shops, menu items and customers must be at least 1")
	case c.OpenHour < 0 || c.CloseHour > 23 || c.OpenHour > c.CloseHour:
		return fmt.Errorf("opening hours must satisfy 0 <= open <= close <= 23")
	case c.MaxLines < 1:
		return fmt.Errorf("max lines must be at least 1")
	}
	return nil
}

// Sale is one synthetic FactSales row with its lines.
type Sale struct {
	SalesKey              int64
	TransactionID         string
	CustomerKey           int
	ShopKey               int
	PaymentMethod         string
	LoyaltyPointsEarned   int
	LoyaltyPointsRedeemed int
	CreatedAt             time.Time
	Lines                 []SaleLine
}

// SaleLine is one FactSalesLineItems row.
type SaleLine struct {
	LineNumber  int
	MenuItemKey int
	Quantity    int
	UnitPrice   decimal.Decimal
	Size        string
}

// LineTotal is quantity times unit price.
func (l SaleLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// DateKey is the YYYYMMDD key of the sale.
func (s Sale) DateKey() int {
	k, _ := strconv.Atoi(s.CreatedAt.Format("20060102"))
	return k
}

// TimeKey is the HHMMSS key of the sale.
func (s Sale) TimeKey() int {
	k, _ := strconv.Atoi(s.CreatedAt.Format("150405"))
	return k
}

// TotalQuantity sums line quantities.
func (s Sale) TotalQuantity() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// TotalAmount sums line totals.
func (s Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// GenerateSales produces cfg.Transactions synthetic sales.
func GenerateSales(cfg FactConfig) ([]Sale, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := NewFakerFromSeed(cfg.Seed)
	newID := uuid.New
	if cfg.Seed != 0 {
		src := f.Reader()
		newID = func() uuid.UUID {
			return uuid.Must(uuid.NewRandomFromReader(src))
		}
	}

	start := cfg.EndDate.AddDate(0, 0, -cfg.Days)
	last := cfg.EndDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
	sales := make([]Sale, 0, cfg.Transactions)

	for i := 1; i <= cfg.Transactions; i++ {
		day := f.DateRange(start, last)
		created := time.Date(day.Year(), day.Month(), day.Day(),
			f.Int(cfg.OpenHour, cfg.CloseHour), f.Int(0, 59), 0, 0, time.UTC)

		lines := make([]SaleLine, f.Int(1, cfg.MaxLines))
		for n := range lines {
			lines[n] = SaleLine{
				LineNumber:  n + 1,
				MenuItemKey: f.Int(1, cfg.MenuItems),
				Quantity:    f.Int(1, 5),
				UnitPrice:   f.Money(2.5, 8.5),
				Size:        ChooseWeighted(f, drinkSizes, sizeWeights),
			}
		}

		redeemed := 0
		if f.Bool() {
			redeemed = f.Int(0, 3)
		}

		sales = append(sales, Sale{
			SalesKey:              int64(i),
			TransactionID:         newID().String(),
			CustomerKey:           f.Int(1, cfg.Customers),
			ShopKey:               f.Int(1, cfg.Shops),
			PaymentMethod:         ChooseWeighted(f, paymentMethods, paymentWeights),
			LoyaltyPointsEarned:   f.Int(0, 5),
			LoyaltyPointsRedeemed: redeemed,
			CreatedAt:             created,
			Lines:                 lines,
		})
	}

	return sales, nil
}

// WriteFactCSVs writes FactSales.csv and FactSalesLineItem.csv into dir.
func WriteFactCSVs(dir string, sales []Sale) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	salesRows := [][]string{{
		"SalesKey", "TransactionId", "DateKey", "TimeKey", "CustomerKey", "ShopKey",
		"TotalQuantity", "TotalAmount", "PaymentMethod", "LoyaltyPointsEarned",
		"LoyaltyPointsRedeemed", "CreatedAt",
	}}
	lineRows := [][]string{{
		"TransactionId", "SalesKey", "LineNumber", "DateKey", "TimeKey", "MenuItemKey",
		"Quantity", "UnitPrice", "LineTotal", "PaymentMethod", "Size", "CreatedAt",
	}}

	for _, s := range sales {
		createdAt := s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
		salesKey := strconv.FormatInt(s.SalesKey, 10)
		dateKey := strconv.Itoa(s.DateKey())
		timeKey := strconv.Itoa(s.TimeKey())

		salesRows = append(salesRows, []string{
			salesKey, s.TransactionID, dateKey, timeKey,
			strconv.Itoa(s.CustomerKey), strconv.Itoa(s.ShopKey),
			strconv.Itoa(s.TotalQuantity()), s.TotalAmount().StringFixed(2), s.PaymentMethod,
			strconv.Itoa(s.LoyaltyPointsEarned), strconv.Itoa(s.LoyaltyPointsRedeemed), createdAt,
		})
		for _, l := range s.Lines {
			lineRows = append(lineRows, []string{
				s.TransactionID, salesKey, strconv.Itoa(l.LineNumber), dateKey, timeKey,
				strconv.Itoa(l.MenuItemKey), strconv.Itoa(l.Quantity),
				l.UnitPrice.StringFixed(2), l.LineTotal().StringFixed(2),
				s.PaymentMethod, l.Size, createdAt,
			})
		}
	}

	if err := writeCSV(filepath.Join(dir, FactSalesFile), salesRows); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, FactLineItemsFile), lineRows); err != nil {
		return err
	}

	logging.Info().
		Str("dir", dir).
		Int("sales", len(sales)).
		Int("lines", len(lineRows)-1).
		Msg("Wrote fact CSVs")
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
