package models

// Transaction types and statuses.
const (
	TransactionPurchase = "purchase"
	TransactionRefund   = "refund"

	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
)

// Transaction is a point-of-sale event as sent to the event stream.
type Transaction struct {
	ID                    string              `json:"id"`
	TransactionID         string              `json:"transactionId"`
	Timestamp             string              `json:"timestamp"`
	CustomerID            string              `json:"customerId"`
	ShopID                string              `json:"shopId"`
	AirportID             string              `json:"airportId"`
	TransactionType       string              `json:"transactionType"`
	Items                 []TransactionItem   `json:"items"`
	TotalAmount           float64             `json:"totalAmount"`
	PaymentMethod         string              `json:"paymentMethod"`
	LoyaltyPointsEarned   int                 `json:"loyaltyPointsEarned"`
	LoyaltyPointsRedeemed int                 `json:"loyaltyPointsRedeemed"`
	Status                string              `json:"status"`
	Metadata              TransactionMetadata `json:"metadata"`
	PartitionKey          string              `json:"_partitionKey"`
}

// TransactionItem is one line of a transaction.
type TransactionItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Size       string  `json:"size,omitempty"`
}

// TransactionMetadata identifies the terminal and staff member.
type TransactionMetadata struct {
	DeviceID    string `json:"deviceId"`
	EmployeeID  string `json:"employeeId"`
	OrderNumber string `json:"orderNumber"`
}

// Key returns the partition key, falling back to the shop.
func (t *Transaction) Key() string {
	if t.PartitionKey != "" {
		return t.PartitionKey
	}
	return t.ShopID
}
