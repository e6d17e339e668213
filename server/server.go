package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tapcardapp/tapcard/internal/config"
	"github.com/tapcardapp/tapcard/internal/handlers"
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
		// WriteTimeout would cut off long-lived SSE chat streams, so it stays
		// off; handlers bound their own work through request contexts.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
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
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes.
	api.HandleFunc("/users/register", h.Register).Methods("POST").Name("users.register")
	api.HandleFunc("/users/login", h.Login).Methods("POST").Name("users.login")
	api.HandleFunc("/card-designs", h.ListDesigns).Methods("GET").Name("designs.list")
	api.HandleFunc("/card-designs/{designId}", h.GetDesign).Methods("GET").Name("designs.get")
	api.HandleFunc("/card-designs/{designId}/reviews", h.ListReviewsByDesign).Methods("GET").Name("reviews.list")

	// Authenticated routes.
	authed := api.NewRoute().Subrouter()
	authed.Use(h.RequireAuth)
	authed.Use(h.MetricsContext)

	authed.HandleFunc("/users/{userId}", h.GetUser).Methods("GET").Name("users.get")
	authed.HandleFunc("/users/{userId}", h.UpdateUser).Methods("PUT").Name("users.update")
	authed.HandleFunc("/users/{userId}", h.DeleteUser).Methods("DELETE").Name("users.delete")

	authed.HandleFunc("/orders/{orderId}", h.GetOrder).Methods("GET").Name("orders.get")
	authed.HandleFunc("/orders/user/{userId}", h.ListOrdersByUser).Methods("GET").Name("orders.list_by_user")

	authed.HandleFunc("/transactions/{transactionId}", h.GetTransaction).Methods("GET").Name("transactions.get")
	authed.HandleFunc("/transactions/user/{userId}", h.ListTransactionsByUser).Methods("GET").Name("transactions.list_by_user")

	authed.HandleFunc("/reviews", h.CreateReview).Methods("POST").Name("reviews.create")
	authed.HandleFunc("/reviews/{reviewId}", h.UpdateReview).Methods("PUT").Name("reviews.update")
	authed.HandleFunc("/reviews/{reviewId}", h.DeleteReview).Methods("DELETE").Name("reviews.delete")

	authed.HandleFunc("/checkout/draft", h.UpdateCheckoutDraft).Methods("PUT").Name("checkout.draft")
	authed.HandleFunc("/checkout/session", h.GetCheckoutSession).Methods("GET").Name("checkout.session")
	authed.HandleFunc("/checkout/session", h.ClearCheckoutSession).Methods("DELETE").Name("checkout.session.clear")
	authed.HandleFunc("/checkout/start", h.StartCheckout).Methods("POST").Name("checkout.start")
	authed.HandleFunc("/checkout/payment-method", h.SubmitPaymentMethod).Methods("POST").Name("checkout.payment_method")
	authed.HandleFunc("/checkout/redirect-result", h.ConfirmRedirect).Methods("POST").Name("checkout.redirect_result")
	authed.HandleFunc("/checkout/complete", h.CompleteCheckout).Methods("POST").Name("checkout.complete")
	authed.HandleFunc("/checkout/summary", h.GetOrderSummary).Methods("GET").Name("checkout.summary")
	authed.HandleFunc("/checkout/summary", h.DismissOrderSummary).Methods("DELETE").Name("checkout.summary.dismiss")

	authed.HandleFunc("/chats/send", h.SendMessage).Methods("POST").Name("chats.send")
	authed.HandleFunc("/chats/history/{userId}", h.ChatHistory).Methods("GET").Name("chats.history")
	authed.HandleFunc("/chats/stream", h.ChatStream).Methods("GET").Name("chats.stream")

	// Admin-only routes.
	admin := api.NewRoute().Subrouter()
	admin.Use(h.RequireAuth)
	admin.Use(h.RequireAdmin)
	admin.Use(h.MetricsContext)

	admin.HandleFunc("/users", h.ListUsers).Methods("GET").Name("users.list")

	admin.HandleFunc("/card-designs", h.CreateDesign).Methods("POST").Name("designs.create")
	admin.HandleFunc("/card-designs/{designId}", h.UpdateDesign).Methods("PUT").Name("designs.update")
	admin.HandleFunc("/card-designs/{designId}", h.DeleteDesign).Methods("DELETE").Name("designs.delete")

	admin.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	admin.HandleFunc("/orders/update-order-status/{orderId}/status", h.UpdateOrderStatus).Methods("PUT").Name("orders.update_status")
	admin.HandleFunc("/orders/{orderId}", h.DeleteOrder).Methods("DELETE").Name("orders.delete")

	admin.HandleFunc("/transactions", h.ListTransactions).Methods("GET").Name("transactions.list")

	admin.HandleFunc("/dashboard", h.Dashboard).Methods("GET").Name("dashboard")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})

	return r
}
