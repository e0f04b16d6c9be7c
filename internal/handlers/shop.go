package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lrseward22/A3/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

type ShopHandler struct {
	Store        *store.Store
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
}

// Index sends logged-in visitors to the catalog and everyone else to login.
func (h *ShopHandler) Index(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	if CurrentUsername(session) != "" {
		http.Redirect(w, r, "/items/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login/", http.StatusSeeOther)
}

// ListItems re-runs the idempotent catalog seed and then renders every
// item. Viewing the shop twice never duplicates rows: the seed skips items
// that already exist by name.
func (h *ShopHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.SeedCatalog(); err != nil {
		slog.Error("Catalog seed failed", "error", err)
		http.Error(w, "Error preparing catalog", http.StatusInternalServerError)
		return
	}

	items, err := h.Store.GetAllItems()
	if err != nil {
		http.Error(w, "Error fetching items", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("items.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, SessionName)
	data := map[string]interface{}{
		"Title":    "Shop",
		"Username": CurrentUsername(session),
		"Items":    items,
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *ShopHandler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid Item ID", http.StatusBadRequest)
		return
	}

	item, err := h.Store.GetItemByID(id)
	if err != nil {
		http.Error(w, "Error fetching item", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.NotFound(w, r)
		return
	}

	tmpl := h.Templates.Get("item.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, SessionName)
	tmpl.Execute(w, map[string]interface{}{
		"Title":     "Shop",
		"Username":  CurrentUsername(session),
		"Item":      item,
		"CsrfField": csrf.TemplateField(r),
	})
}
