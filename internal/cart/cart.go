// Package cart holds the per-session shopping cart aggregate. The cart is
// transient: it lives only in the browser session cookie and is cleared
// after a successful checkout.
package cart

import (
	"encoding/gob"
	"errors"
	"sort"

	"github.com/gorilla/sessions"
)

const sessionKey = "cart"

// Register the concrete type so gorilla/sessions can gob-encode it.
func init() {
	gob.Register(Cart{})
}

var ErrInvalidQuantity = errors.New("cart: quantity must be a positive integer")

// Cart maps item name to quantity. Quantities are validated on the way in,
// so a stored cart never holds a zero or negative line.
type Cart struct {
	Lines map[string]int
}

func New() Cart {
	return Cart{Lines: make(map[string]int)}
}

// Add accumulates quantity onto an existing line, or starts a new one.
func (c *Cart) Add(item string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.Lines == nil {
		c.Lines = make(map[string]int)
	}
	c.Lines[item] += quantity
	return nil
}

// Remove deletes a line. Reports whether the line existed.
func (c *Cart) Remove(item string) bool {
	if _, ok := c.Lines[item]; !ok {
		return false
	}
	delete(c.Lines, item)
	return true
}

func (c *Cart) Quantity(item string) int {
	return c.Lines[item]
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clear() {
	c.Lines = make(map[string]int)
}

// ItemNames returns the carted item names in stable order for rendering.
func (c *Cart) ItemNames() []string {
	names := make([]string, 0, len(c.Lines))
	for name := range c.Lines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromSession pulls the cart out of a gorilla session, returning an empty
// cart if none has been stored yet.
func FromSession(session *sessions.Session) Cart {
	if v, ok := session.Values[sessionKey].(Cart); ok {
		if v.Lines == nil {
			v.Lines = make(map[string]int)
		}
		return v
	}
	return New()
}

// Save writes the cart back into the session values. The caller still has
// to save the session itself.
func (c *Cart) Save(session *sessions.Session) {
	session.Values[sessionKey] = *c
}
