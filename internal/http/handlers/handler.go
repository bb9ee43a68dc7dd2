package handlers

import (
	"swiftmart-admin-services/internal/config"
	"swiftmart-admin-services/internal/queue"
	"swiftmart-admin-services/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
	Queue  *queue.Client
	Store  *storage.ObjectStore
}
