package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lrseward22/A3/internal/config"
	"github.com/Lrseward22/A3/internal/handlers"
	"github.com/Lrseward22/A3/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

func main() {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// TextHandler for console readability; for production JSONHandler might be preferred.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init DB (file is created on first open if absent)
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}

	if err := db.Migrate("migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	templates.AddFunc("money", func(amount float64) string {
		return fmt.Sprintf("%.2f", amount)
	})
	if err := templates.Load("templates"); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Setup Handlers
	authHandler := &handlers.AuthHandler{
		Store:        db,
		SessionStore: sessionStore,
		Templates:    templates,
	}
	shopHandler := &handlers.ShopHandler{
		Store:        db,
		SessionStore: sessionStore,
		Templates:    templates,
	}
	cartHandler := &handlers.CartHandler{
		Store:        db,
		SessionStore: sessionStore,
		Templates:    templates,
	}
	orderHandler := &handlers.OrderHandler{
		Store:        db,
		SessionStore: sessionStore,
		Templates:    templates,
	}

	mux := http.NewServeMux()

	// Static Files
	fileServer := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static", fileServer))

	// Rate limiter for the credential forms only. Checkout must stay
	// unlimited so repeated submissions behave the same as the original.
	rateLimiter := handlers.NewRateLimiter(1 * time.Second)

	mux.HandleFunc("GET /{$}", shopHandler.Index)

	mux.HandleFunc("GET /register/{$}", authHandler.RegisterForm)
	mux.HandleFunc("POST /users/{$}", rateLimiter.Middleware(authHandler.CreateUser))
	mux.HandleFunc("GET /login/{$}", authHandler.LoginForm)
	mux.HandleFunc("POST /login/{$}", rateLimiter.Middleware(authHandler.LoginPost))
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

	// 6. Middleware Setup
	// Paths reachable without logging in. Order history is deliberately on
	// the list; see the handler.
	allowed := map[string]bool{
		"/":          true,
		"/register/": true,
		"/users/":    true,
		"/login/":    true,
		"/orders/":   true,
	}
	gate := handlers.AuthGate(sessionStore, allowed)

	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Auth Gate -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(gate(mux)),
		),
	)

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
