package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"swiftmart-admin-services/internal/config"
	"swiftmart-admin-services/internal/http/handlers"
	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/queue"
	"swiftmart-admin-services/internal/storage"
	"swiftmart-admin-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, objectStore *storage.ObjectStore, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{DB: db, Logger: logger, Config: cfg, Queue: queueClient, Store: objectStore}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.AuthLogin)
		r.Post("/refresh", h.AuthRefresh)

		// Logout is role-agnostic: couriers revoke their sessions here too.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AnyAuth(db, cfg.JWTSecret))
			r.Post("/logout", h.AuthLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(db, cfg.JWTSecret))
			r.Get("/ws-ticket", h.AuthWSTicket)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AdminAuth(db, cfg.JWTSecret))

		r.Get("/orders", h.OrdersList)
		r.Get("/orders/report", h.OrdersReportPDF)
		r.Get("/orders/stats/overview", h.OrdersStatsOverview)
		r.Get("/orders/{orderId}", h.OrderDetail)
		r.Put("/orders/{orderId}/status", h.OrderUpdateStatus)
		r.Put("/orders/{orderId}/shipping", h.OrderUpdateShipping)
		r.Put("/orders/{orderId}/payment", h.OrderUpdatePayment)

		r.Get("/delivery/delivery-persons", h.DeliveryPersonsList)
		r.Post("/delivery/orders/{orderId}/assign", h.DeliveryAssign)
		r.Put("/delivery/orders/{orderId}/reassign", h.DeliveryReassign)

		r.Get("/payments/admin/all", h.AdminPaymentsList)
		r.Get("/payments/admin/statistics", h.AdminPaymentStatistics)
		r.Get("/payments/admin/reports", h.AdminPaymentReports)
		r.Put("/payments/admin/{paymentId}/mark-received", h.AdminPaymentMarkReceived)
		r.Put("/payments/admin/{paymentId}/update", h.AdminPaymentUpdate)

		r.Get("/inventory/overview", h.InventoryOverview)
		r.Get("/inventory/statistics", h.InventoryStatistics)
		r.Get("/inventory/low-stock", h.InventoryLowStock)
		r.Post("/inventory/bulk-update", h.InventoryBulkUpdate)
		r.Get("/inventory/reports", h.InventoryReports)
		r.Get("/inventory/products/{productId}/movements", h.InventoryMovements)

		r.Get("/discounts", h.DiscountsList)
		r.Post("/discounts", h.DiscountCreate)
		r.Put("/discounts/{discountId}", h.DiscountUpdate)
		r.Delete("/discounts/{discountId}", h.DiscountDelete)
		r.Patch("/discounts/{discountId}/toggle-status", h.DiscountToggleStatus)

		r.Get("/dashboard/overview", h.DashboardOverview)
	})

	r.Route("/api/payments/delivery", func(r chi.Router) {
		r.Use(middleware.DeliveryAuth(db, cfg.JWTSecret))

		r.Get("/my-payments", h.DeliveryMyPayments)
		r.Post("/{paymentId}/collect", h.DeliveryCollectPayment)
		r.Post("/{paymentId}/report-issue", h.DeliveryReportIssue)
		r.Post("/{paymentId}/retry", h.DeliveryRetryCollection)
		r.Post("/{paymentId}/upload-proof", h.DeliveryUploadProof)
	})

	if wsServer != nil {
		r.Get("/ws/admin/feed", wsServer.AdminFeedWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
