package models

import (
	"time"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PaymentToken string    `json:"-"` // Treated as a credential, never rendered
	PasswordHash string    `json:"-"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
}

type Item struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"` // Filename under static/images/
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Order is a snapshot taken at checkout: purchaser name and address are
// copied from the user, the total from the cart. Never updated afterwards.
type Order struct {
	ID        int         `json:"id"`
	OrderRef  string      `json:"order_ref"` // Public reference shown in history
	Name      string      `json:"name"`
	Address   string      `json:"address"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Lines     []OrderItem `json:"lines,omitempty"`
}

type OrderItem struct {
	ID       int    `json:"id"`
	OrderID  int    `json:"order_id"`
	ItemID   int    `json:"item_id"`
	ItemName string `json:"item_name"` // For display convenience
	Quantity int    `json:"quantity"`
}

// LineItem pairs a catalog item with a cart quantity for checkout display.
type LineItem struct {
	Item     Item
	Quantity int
}

func (l LineItem) Subtotal() float64 {
	return l.Item.Price * float64(l.Quantity)
}
