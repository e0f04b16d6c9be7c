package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Lrseward22/A3/internal/cart"
	"github.com/Lrseward22/A3/internal/models"
	"github.com/Lrseward22/A3/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

type CartHandler struct {
	Store        *store.Store
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
}

// AddToCart accumulates a quantity onto the session cart line for the named
// item. Quantities must parse as positive integers; anything else is a 400.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	item := r.FormValue("item")
	if item == "" {
		http.Error(w, "Missing item name", http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		http.Error(w, "Quantity must be an integer", http.StatusBadRequest)
		return
	}

	session, _ := h.SessionStore.Get(r, SessionName)
	c := cart.FromSession(session)
	if err := c.Add(item, quantity); err != nil {
		http.Error(w, "Quantity must be a positive integer", http.StatusBadRequest)
		return
	}
	c.Save(session)
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cart/", http.StatusSeeOther)
}

// ShowCart lists only the lines the visitor added, joined against the
// catalog for prices. Carted names with no catalog row are skipped.
func (h *CartHandler) ShowCart(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	c := cart.FromSession(session)

	var lines []models.LineItem
	var total float64
	for _, name := range c.ItemNames() {
		item, err := h.Store.GetItemByName(name)
		if err != nil {
			http.Error(w, "Error fetching cart items", http.StatusInternalServerError)
			return
		}
		if item == nil {
			continue
		}
		line := models.LineItem{Item: *item, Quantity: c.Quantity(name)}
		lines = append(lines, line)
		total += line.Subtotal()
	}

	tmpl := h.Templates.Get("cart.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Title":     "Cart",
		"Username":  CurrentUsername(session),
		"Lines":     lines,
		"Total":     total,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// RemoveFromCart handles DELETE /cart/ with a JSON body naming the line to
// drop. A name that is not in the cart is a 404.
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Item string `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	session, _ := h.SessionStore.Get(r, SessionName)
	c := cart.FromSession(session)
	if !c.Remove(payload.Item) {
		http.Error(w, "Item not in cart.", http.StatusNotFound)
		return
	}
	c.Save(session)
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
