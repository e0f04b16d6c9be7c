package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/Lrseward22/A3/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newApp wires the full route table against an in-memory store with the
// auth gate in place, returning the gated handler for the callers to wrap.
func newApp(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	db, err := store.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.DB.Close() })

	sessionStore := sessions.NewCookieStore([]byte("test-session-key-0123456789abcdef"))

	templates := NewTemplateCache()
	templates.AddFunc("money", func(amount float64) string {
		return fmt.Sprintf("%.2f", amount)
	})
	require.NoError(t, templates.Load("../../templates"))

	authHandler := &AuthHandler{Store: db, SessionStore: sessionStore, Templates: templates}
	shopHandler := &ShopHandler{Store: db, SessionStore: sessionStore, Templates: templates}
	cartHandler := &CartHandler{Store: db, SessionStore: sessionStore, Templates: templates}
	orderHandler := &OrderHandler{Store: db, SessionStore: sessionStore, Templates: templates}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", shopHandler.Index)
	mux.HandleFunc("GET /register/{$}", authHandler.RegisterForm)
	mux.HandleFunc("POST /users/{$}", authHandler.CreateUser)
	mux.HandleFunc("GET /login/{$}", authHandler.LoginForm)
	mux.HandleFunc("POST /login/{$}", authHandler.LoginPost)
	mux.HandleFunc("GET /logout/{$}", authHandler.LogoutForm)
	mux.HandleFunc("POST /logout/{$}", authHandler.LogoutPost)
	mux.HandleFunc("GET /items/{$}", shopHandler.ListItems)
	mux.HandleFunc("GET /items/{id}/{$}", shopHandler.ItemDetail)
	mux.HandleFunc("POST /cart/{$}", cartHandler.AddToCart)
	mux.HandleFunc("GET /cart/{$}", cartHandler.ShowCart)
	mux.HandleFunc("DELETE /cart/{$}", cartHandler.RemoveFromCart)
	mux.HandleFunc("GET /checkout/{$}", orderHandler.Checkout)
	mux.HandleFunc("POST /orders/{$}", orderHandler.PlaceOrder)
	mux.HandleFunc("GET /orders/{$}", orderHandler.History)

	allowed := map[string]bool{
		"/":          true,
		"/register/": true,
		"/users/":    true,
		"/login/":    true,
		"/orders/":   true,
	}
	gate := AuthGate(sessionStore, allowed)
	return gate(mux), db
}

// newTestServer serves the gated mux without the CSRF and rate-limit
// layers, which only get in the way of form-driven tests.
func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	app, db := newApp(t)
	ts := httptest.NewServer(app)
	t.Cleanup(ts.Close)
	return ts, db
}

// newProductionServer serves the same middleware chain as cmd/server:
// Logging -> Security Headers -> CSRF -> Auth Gate -> Mux.
func newProductionServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	app, db := newApp(t)
	CSRF := csrf.Protect(
		[]byte("test-csrf-key-0123456789abcdef!!"),
		csrf.Secure(false),
	)
	ts := httptest.NewServer(LoggingMiddleware(SecurityHeadersMiddleware(CSRF(app))))
	t.Cleanup(ts.Close)
	return ts, db
}

var csrfTokenPattern = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// csrfToken fetches a page that renders the hidden token field and pulls
// the token out of it. The login form works for that in any auth state.
func csrfToken(t *testing.T, client *http.Client, pageURL string) string {
	t.Helper()
	resp, err := client.Get(pageURL)
	require.NoError(t, err)
	body := readBody(t, resp)
	match := csrfTokenPattern.FindStringSubmatch(body)
	require.NotNil(t, match, "page must render the CSRF token field")
	return match[1]
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// noRedirect stops the client at the first response so redirects can be
// asserted directly.
func noRedirect(c *http.Client) *http.Client {
	return &http.Client{
		Jar: c.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func registerForm(username string) url.Values {
	return url.Values{
		"username":      {username},
		"name":          {"Test " + username},
		"email":         {username + "@example.com"},
		"address":       {"123 Test Lane"},
		"payment":       {"tok-" + username},
		"password":      {"hunter22"},
		"password_conf": {"hunter22"},
	}
}

func register(t *testing.T, client *http.Client, base, username string) {
	t.Helper()
	resp, err := client.PostForm(base+"/users/", registerForm(username))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func login(t *testing.T, client *http.Client, base, username, password string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(base+"/login/", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	return resp
}

func addToCart(t *testing.T, client *http.Client, base, item string, quantity string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(base+"/cart/", url.Values{
		"item":     {item},
		"quantity": {quantity},
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")

	resp, err := client.PostForm(ts.URL+"/users/", registerForm("alice"))
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "Username already exists. Please choose another.")

	count, err := db.CountUsersByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "duplicate registration must not create a second row")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	form := registerForm("bob")
	form.Set("password_conf", "different")
	resp, err := client.PostForm(ts.URL+"/users/", form)
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "Passwords must match.")

	count, err := db.CountUsersByUsername("bob")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegisterDuplicateEmailReportedGenerically(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")

	form := registerForm("alice2")
	form.Set("email", "alice@example.com") // collides with alice's
	resp, err := client.PostForm(ts.URL+"/users/", form)
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "An unknown error occurred when creating this user.")
	assert.NotContains(t, body, "UNIQUE constraint", "the raw constraint error must not leak into the page")
}

func TestLoginPasswordNotStoredInPlaintext(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")

	user, err := db.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"), "password must be a bcrypt hash")
}

func TestLoginGenericFailureMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")

	// Wrong password and unknown username produce the same message.
	wrongPass := readBody(t, login(t, client, ts.URL, "alice", "nope"))
	unknownUser := readBody(t, login(t, client, ts.URL, "nobody", "nope"))
	assert.Contains(t, wrongPass, "Wrong username or password")
	assert.Contains(t, unknownUser, "Wrong username or password")

	// And neither established a session: the shop still redirects to login.
	resp, err := noRedirect(client).Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login/", resp.Header.Get("Location"))
}

func TestLoginSuccessRedirectsToCatalog(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")

	resp := login(t, noRedirect(client), ts.URL, "alice", "hunter22")
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/items/", resp.Header.Get("Location"))
}

func TestAuthGateAllowList(t *testing.T) {
	ts, _ := newTestServer(t)
	client := noRedirect(newTestClient(t))

	// Gated paths bounce to login.
	for _, path := range []string{"/items/", "/cart/", "/checkout/", "/logout/"} {
		resp, err := client.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login/", resp.Header.Get("Location"), path)
	}

	// The order history stays reachable anonymously.
	resp, err := client.Get(ts.URL + "/orders/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogSeedIdempotent(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()

	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL + "/items/")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	items, err := db.GetAllItems()
	require.NoError(t, err)
	assert.Len(t, items, 5, "viewing the catalog twice must not duplicate items")
}

func TestItemDetailMissingIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()

	resp, err := client.Get(ts.URL + "/items/9999/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartAddAccumulates(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	// Seed the catalog so the cart view can price the lines.
	resp, err := client.Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()

	addToCart(t, client, ts.URL, "Normal Cloak", "2").Body.Close()
	addToCart(t, client, ts.URL, "Normal Cloak", "3").Body.Close()

	resp, err = client.Get(ts.URL + "/cart/")
	require.NoError(t, err)
	body := readBody(t, resp)
	// 5 cloaks at 10.00: the view shows quantity 5 and subtotal 50.00.
	assert.Contains(t, body, "<td>5</td>")
	assert.Contains(t, body, "$50.00")
}

func TestCartRejectsBadQuantities(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()

	for _, quantity := range []string{"0", "-2", "two"} {
		resp := addToCart(t, client, ts.URL, "Normal Cloak", quantity)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "quantity %q", quantity)
	}
}

func TestCartRemove(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	addToCart(t, client, ts.URL, "Normal Cloak", "2").Body.Close()

	// Removing an absent line is a 404.
	resp := deleteCartItem(t, client, ts.URL, "Normal Helmet")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Removing a present line succeeds with an empty 200.
	resp = deleteCartItem(t, client, ts.URL, "Normal Cloak")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// And it is gone now.
	resp = deleteCartItem(t, client, ts.URL, "Normal Cloak")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func deleteCartItem(t *testing.T, client *http.Client, base, item string) *http.Response {
	t.Helper()
	payload := []byte(`{"item": "` + item + `"}`)
	req, err := http.NewRequest(http.MethodDelete, base+"/cart/", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	resp, err := client.Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()

	addToCart(t, client, ts.URL, "Normal Cloak", "2").Body.Close()

	// The checkout summary shows the computed total.
	resp, err = client.Get(ts.URL + "/checkout/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "$20.00")

	resp, err = client.PostForm(ts.URL+"/orders/", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	orders, err := db.GetAllOrders()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 20.00, orders[0].Total)
	assert.Equal(t, "Test alice", orders[0].Name)
	assert.Equal(t, "123 Test Lane", orders[0].Address)
	require.Len(t, orders[0].Lines, 1)
	assert.Equal(t, "Normal Cloak", orders[0].Lines[0].ItemName)
	assert.Equal(t, 2, orders[0].Lines[0].Quantity)

	// Cart is empty afterwards.
	resp, err = client.Get(ts.URL + "/cart/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Your cart is empty.")
}

// TestDoubleSubmitCreatesTwoOrders documents the duplicate-order behavior:
// with no idempotency key, replaying the checkout POST with the same session
// cookie produces two separate orders with identical totals.
func TestDoubleSubmitCreatesTwoOrders(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	resp, err := client.Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()

	addToCart(t, client, ts.URL, "Normal Cloak", "2").Body.Close()

	// Capture the cookie state a second tab would still hold.
	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	cookies := client.Jar.Cookies(base)

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/orders/", strings.NewReader(""))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := noRedirect(client).Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	orders, err := db.GetAllOrders()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, orders[0].Total, orders[1].Total)
	assert.Equal(t, 20.00, orders[0].Total)
}

func TestLogoutClearsSession(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	addToCart(t, client, ts.URL, "Normal Cloak", "1").Body.Close()

	resp, err := client.PostForm(ts.URL+"/logout/", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()

	// Back to anonymous: the shop is gated again.
	r, err := noRedirect(client).Get(ts.URL + "/items/")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	assert.Equal(t, "/login/", r.Header.Get("Location"))
}

func TestIndexRedirects(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t)

	resp, err := noRedirect(client).Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login/", resp.Header.Get("Location"))

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()

	resp, err = noRedirect(client).Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/items/", resp.Header.Get("Location"))
}

// TestCartRemoveThroughProductionChain drives the cart-remove operation
// through the same middleware stack cmd/server ships: a DELETE without a
// token is rejected, and the token the cart page renders makes it succeed.
func TestCartRemoveThroughProductionChain(t *testing.T) {
	ts, _ := newProductionServer(t)
	client := newTestClient(t)

	form := registerForm("alice")
	form.Set("gorilla.csrf.Token", csrfToken(t, client, ts.URL+"/register/"))
	resp, err := client.PostForm(ts.URL+"/users/", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loginForm := url.Values{
		"username":           {"alice"},
		"password":           {"hunter22"},
		"gorilla.csrf.Token": {csrfToken(t, client, ts.URL+"/login/")},
	}
	resp, err = client.PostForm(ts.URL+"/login/", loginForm)
	require.NoError(t, err)
	resp.Body.Close()

	// Seed the catalog, then add a line so the cart page has a remove form.
	resp, err = client.Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()
	addForm := url.Values{
		"item":               {"Normal Cloak"},
		"quantity":           {"2"},
		"gorilla.csrf.Token": {csrfToken(t, client, ts.URL+"/login/")},
	}
	resp, err = client.PostForm(ts.URL+"/cart/", addForm)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Without a token the CSRF layer rejects the DELETE outright.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/cart/", strings.NewReader(`{"item": "Normal Cloak"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The cart page renders the token the remove control sends back.
	resp, err = client.Get(ts.URL + "/cart/")
	require.NoError(t, err)
	cartPage := readBody(t, resp)
	match := csrfTokenPattern.FindStringSubmatch(cartPage)
	require.NotNil(t, match, "cart page must render a token for the remove form")
	assert.Contains(t, cartPage, `class="remove-form"`)
	assert.Contains(t, cartPage, `data-item="Normal Cloak"`)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/cart/", strings.NewReader(`{"item": "Normal Cloak"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", match[1])
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The line is gone: the same remove now 404s.
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/cart/", strings.NewReader(`{"item": "Normal Cloak"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", csrfToken(t, client, ts.URL+"/login/"))
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// The unknown-username path must run a real bcrypt comparison so its
// response time matches the wrong-password path. That only holds if the
// stand-in hash is well formed; a parse failure would return early.
func TestLoginDummyHashBurnsFullCompare(t *testing.T) {
	err := bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte("anything"))
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)

	cost, err := bcrypt.Cost(dummyPasswordHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost, "stand-in hash must cost the same as stored hashes")
}

func TestOrderHistoryGlobal(t *testing.T) {
	ts, db := newTestServer(t)
	client := newTestClient(t)

	register(t, client, ts.URL, "alice")
	login(t, client, ts.URL, "alice", "hunter22").Body.Close()
	resp, err := client.Get(ts.URL + "/items/")
	require.NoError(t, err)
	resp.Body.Close()
	addToCart(t, client, ts.URL, "Normal Cloak", "2").Body.Close()
	resp, err = client.PostForm(ts.URL+"/orders/", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()

	orders, err := db.GetAllOrders()
	require.NoError(t, err)
	require.Len(t, orders, 1)

	// A fresh anonymous visitor sees the same history.
	anon := newTestClient(t)
	resp, err = anon.Get(ts.URL + "/orders/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, orders[0].OrderRef)
	assert.Contains(t, body, "$20.00")
}
