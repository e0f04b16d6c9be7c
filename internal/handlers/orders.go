package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lrseward22/A3/internal/cart"
	"github.com/Lrseward22/A3/internal/models"
	"github.com/Lrseward22/A3/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

type OrderHandler struct {
	Store        *store.Store
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
}

// lineItems derives the checkout lines: every catalog item carrying a
// positive quantity in the cart, in catalog order. Checkout display and
// order posting both go through here so they always agree on the total.
func (h *OrderHandler) lineItems(c cart.Cart) ([]models.LineItem, float64, error) {
	items, err := h.Store.GetAllItems()
	if err != nil {
		return nil, 0, err
	}

	var lines []models.LineItem
	var total float64
	for _, item := range items {
		qty := c.Quantity(item.Name)
		if qty <= 0 {
			continue
		}
		line := models.LineItem{Item: item, Quantity: qty}
		lines = append(lines, line)
		total += line.Subtotal()
	}
	return lines, total, nil
}

func (h *OrderHandler) currentUser(r *http.Request, session *sessions.Session) (*models.User, error) {
	username := CurrentUsername(session)
	if username == "" {
		return nil, nil
	}
	return h.Store.GetUserByUsername(username)
}

// Checkout shows the carted lines, the computed total and the purchaser's
// profile for confirmation.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)

	user, err := h.currentUser(r, session)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}

	lines, total, err := h.lineItems(cart.FromSession(session))
	if err != nil {
		http.Error(w, "Error computing checkout", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("checkout.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	tmpl.Execute(w, map[string]interface{}{
		"Title":     "Checkout",
		"Username":  user.Username,
		"User":      user,
		"Lines":     lines,
		"Total":     total,
		"CsrfField": csrf.TemplateField(r),
	})
}

// PlaceOrder re-derives the lines from the session cart, snapshots the
// purchaser's name and address into a new order, and clears the cart.
// There is no idempotency key: two rapid submissions create two orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)

	user, err := h.currentUser(r, session)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}

	c := cart.FromSession(session)
	lines, total, err := h.lineItems(c)
	if err != nil {
		http.Error(w, "Error computing order", http.StatusInternalServerError)
		return
	}

	order := &models.Order{
		OrderRef: uuid.NewString(),
		Name:     user.Name,
		Address:  user.Address,
		Total:    total,
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, models.OrderItem{
			ItemID:   line.Item.ID,
			Quantity: line.Quantity,
		})
	}

	if err := h.Store.CreateOrder(order); err != nil {
		slog.Error("Failed to create order", "username", user.Username, "error", err)
		http.Error(w, "Failed to place order", http.StatusInternalServerError)
		return
	}

	c.Clear()
	c.Save(session)
	session.AddFlash(FlashMessage{Type: "success", Message: "Order placed successfully!"})
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session after order", "error", err)
	}

	slog.Info("Order placed", "order_id", order.ID, "order_ref", order.OrderRef, "total", order.Total)
	http.Redirect(w, r, "/orders/", http.StatusSeeOther)
}

// History lists every order in the shop, newest first, with its lines and
// some aggregate numbers. It is not scoped to the requesting user and is
// reachable without logging in, matching the original shop's policy.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.GetAllOrders()
	if err != nil {
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}

	stats, err := h.Store.GetShopStats()
	if err != nil {
		http.Error(w, "Error fetching order stats", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("orders.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, SessionName)
	data := map[string]interface{}{
		"Title":    "Orders",
		"Username": CurrentUsername(session),
		"Orders":   orders,
		"Stats":    stats,
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}
