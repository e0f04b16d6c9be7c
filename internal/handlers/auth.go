package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lrseward22/A3/internal/models"
	"github.com/Lrseward22/A3/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Store        *store.Store
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
}

// Compared against when the username is unknown, so that path burns the
// same bcrypt cost as a wrong password and login failures take the same
// time either way.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("congo-timing-equalizer"), bcrypt.DefaultCost)

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, map[string]interface{}{})
}

// CreateUser handles POST /users/. Validation order matters: username
// collision first, then password confirmation, then the insert itself.
// Duplicate email or payment token only surfaces from the insert and is
// reported generically, without naming the column that collided.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")

	count, err := h.Store.CountUsersByUsername(username)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		h.renderRegister(w, r, map[string]interface{}{
			"UsernameMessage": "Username already exists. Please choose another.",
		})
		return
	}

	if r.FormValue("password") != r.FormValue("password_conf") {
		h.renderRegister(w, r, map[string]interface{}{
			"PasswordMessage": "Passwords must match.",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.FormValue("password")), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Username:     username,
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Address:      r.FormValue("address"),
		PaymentToken: r.FormValue("payment"),
		PasswordHash: string(hash),
	}

	if err := h.Store.CreateUser(user); err != nil {
		slog.Error("Failed to create user", "username", username, "error", err)
		h.renderRegister(w, r, map[string]interface{}{
			"CreateMessage": "An unknown error occurred when creating this user.",
		})
		return
	}

	http.Redirect(w, r, "/login/", http.StatusSeeOther)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "")
}

func (h *AuthHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.Store.GetUserByUsername(username)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// One message for both unknown username and wrong password, so the form
	// does not leak which accounts exist.
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		h.renderLogin(w, r, "Wrong username or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		h.renderLogin(w, r, "Wrong username or password")
		return
	}

	session, _ := h.SessionStore.Get(r, SessionName)
	session.Values["username"] = user.Username
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.Info("Login successful", "username", user.Username)
	http.Redirect(w, r, "/items/", http.StatusSeeOther)
}

func (h *AuthHandler) LogoutForm(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("logout.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, SessionName)
	tmpl.Execute(w, map[string]interface{}{
		"Title":     "Logout",
		"Username":  CurrentUsername(session),
		"CsrfField": csrf.TemplateField(r),
	})
}

// LogoutPost wipes the whole session: identity, cart, flashes, everything.
func (h *AuthHandler) LogoutPost(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1 // Expire immediately
	session.Save(r, w)
	http.Redirect(w, r, "/login/", http.StatusSeeOther)
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, data map[string]interface{}) {
	tmpl := h.Templates.Get("register.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	r.ParseForm()
	session, _ := h.SessionStore.Get(r, SessionName)
	data["Title"] = "Register User"
	data["Username"] = CurrentUsername(session)
	data["CsrfField"] = csrf.TemplateField(r)
	data["Values"] = r.Form // Pre-fill form on error
	tmpl.Execute(w, data)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, message string) {
	tmpl := h.Templates.Get("login.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, SessionName)
	tmpl.Execute(w, map[string]interface{}{
		"Title":     "Login",
		"Username":  CurrentUsername(session),
		"CsrfField": csrf.TemplateField(r),
		"Message":   message,
	})
}
