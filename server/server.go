package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kasuwaapp/kasuwa/internal/config"
	"github.com/kasuwaapp/kasuwa/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config/paystack", h.PaystackConfig).Methods("GET").Name("config.paystack")

	// Account routes, no session required.
	api.HandleFunc("/users", h.Register).Methods("POST").Name("users.register")
	api.HandleFunc("/users/auth", h.Login).Methods("POST").Name("users.login")
	api.HandleFunc("/users/logout", h.Logout).Methods("POST").Name("users.logout")
	api.HandleFunc("/users/verify-otp", h.VerifyOTP).Methods("POST").Name("users.verify_otp")
	api.HandleFunc("/users/resend-otp", h.ResendOTP).Methods("POST").Name("users.resend_otp")
	api.HandleFunc("/users/forgot-password", h.ForgotPassword).Methods("POST").Name("users.forgot_password")
	api.HandleFunc("/users/reset-password", h.ResetPassword).Methods("POST").Name("users.reset_password")

	// Public catalog.
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")

	// Admin-only routes. Registered before the session routes so the
	// static /orders/... paths are not swallowed by /orders/{id}.
	admin := api.NewRoute().Subrouter()
	admin.Use(h.RequireAuth)
	admin.Use(h.RequireAdmin)
	admin.Use(h.RequireSameOrigin)
	admin.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	admin.HandleFunc("/orders/total-orders", h.TotalOrders).Methods("GET").Name("orders.total_orders")
	admin.HandleFunc("/orders/total-sales", h.TotalSales).Methods("GET").Name("orders.total_sales")
	admin.HandleFunc("/orders/total-sales-by-date", h.TotalSalesByDate).Methods("GET").Name("orders.total_sales_by_date")
	admin.HandleFunc("/orders/{id}/delivered", h.DeliverOrder).Methods("PUT").Name("orders.delivered")

	// Session-holding routes.
	authed := api.NewRoute().Subrouter()
	authed.Use(h.RequireAuth)
	authed.Use(h.RequireSameOrigin)
	authed.HandleFunc("/users/profile", h.Profile).Methods("GET").Name("users.profile")
	authed.HandleFunc("/users/profile", h.UpdateProfile).Methods("PUT").Name("users.profile.update")
	authed.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	authed.HandleFunc("/orders/mine", h.MyOrders).Methods("GET").Name("orders.mine")
	authed.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	authed.HandleFunc("/orders/{id}/pay", h.PayOrder).Methods("PUT").Name("orders.pay")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
