// Package models holds the data transfer objects shared by the customer
// API, the POS streamer and the warehouse loader.
package models

import (
	"strings"
	"time"
)

// Customer is a loyalty-program member as stored in the document store
// and in the local JSON fallback.
type Customer struct {
	ID               string               `json:"id" bson:"id"`
	CustomerID       string               `json:"customerId" bson:"customerId"`
	Name             string               `json:"name" bson:"name"`
	Email            string               `json:"email" bson:"email"`
	LoyaltyPoints    int                  `json:"loyaltyPoints" bson:"loyaltyPoints"`
	LastPurchaseDate *time.Time           `json:"lastPurchaseDate,omitempty" bson:"lastPurchaseDate,omitempty"`
	Preferences      *CustomerPreferences `json:"preferences,omitempty" bson:"preferences,omitempty"`
	Recommendations  []Recommendation     `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
	RegisteredAt     *time.Time           `json:"registeredAt,omitempty" bson:"registeredAt,omitempty"`
	UpdatedAt        *time.Time           `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// CustomerPreferences captures what a customer usually orders and where.
type CustomerPreferences struct {
	FavoriteDrink           string                   `json:"favoriteDrink" bson:"favoriteDrink"`
	Airport                 string                   `json:"airport" bson:"airport"`
	DietaryRestrictions     []string                 `json:"dietaryRestrictions" bson:"dietaryRestrictions"`
	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty" bson:"notificationPreferences,omitempty"`
}

// NotificationPreferences are the opt-in channels of a customer.
type NotificationPreferences struct {
	Email bool `json:"email" bson:"email"`
	Push  bool `json:"push" bson:"push"`
}

// Recommendation is one batch of menu suggestions produced for a customer.
type Recommendation struct {
	RecommendationID string     `json:"recommendationId" bson:"recommendationId"`
	MenuItems        []MenuItem `json:"menuItems" bson:"menuItems"`
	Score            float64    `json:"score" bson:"score"`
	GeneratedAt      *time.Time `json:"generatedAt,omitempty" bson:"generatedAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	Source           string     `json:"source" bson:"source"`
}

// MenuItem is a recommended menu entry.
type MenuItem struct {
	MenuItemID string  `json:"menuItemId" bson:"menuItemId"`
	Name       string  `json:"name" bson:"name"`
	Score      float64 `json:"score" bson:"score"`
	Reason     string  `json:"reason" bson:"reason"`
}

// Key returns the identity used when merging customers from several
// sources. The document id wins; customerId is used when id is absent.
func (c *Customer) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.CustomerID
}

// HasID reports whether id matches either the document id or the
// customer number.
func (c *Customer) HasID(id string) bool {
	return id != "" && (c.ID == id || c.CustomerID == id)
}

// Matches reports whether term occurs in any searchable field, ignoring
// case. A blank term matches everything.
func (c *Customer) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Email, c.CustomerID, c.ID} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Airport returns the preferred airport or "" when none is recorded.
func (c *Customer) Airport() string {
	if c.Preferences == nil {
		return ""
	}
	return c.Preferences.Airport
}
