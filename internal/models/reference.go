package models

// Shop is a Fourth Coffee location.
type Shop struct {
	ShopID    string `json:"shopId"`
	Name      string `json:"name"`
	AirportID string `json:"airportId"`
}

// ReferenceMenuItem is a menu entry with its price list.
type ReferenceMenuItem struct {
	MenuItemID string     `json:"menuItemId"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Price      float64    `json:"price"`
	Sizes      []MenuSize `json:"sizes,omitempty"`
}

// MenuSize is a size option and its price.
type MenuSize struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}
