package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var appStart = time.Now()

// Writable is the storage probe.
type Writable interface {
	CheckWritable() error
}

type HealthCtrl struct {
	db       *gorm.DB
	store    Writable
	provider string
	embedder string
}

// NewHealthCtrl reports on db and store; provider and embedder are the
// configured AI backends, shown for operators.
func NewHealthCtrl(db *gorm.DB, store Writable, provider, embedder string) *HealthCtrl {
	return &HealthCtrl{db: db, store: store, provider: provider, embedder: embedder}
}

type sub struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) checkDB(ctx context.Context) sub {
	if h.db == nil {
		return sub{Err: "gorm db is nil"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return sub{Err: "db.DB(): " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return sub{Err: "ping: " + err.Error()}
	}
	return sub{OK: true}
}

// Health answers 503 only when the database is down. A read-only store
// degrades uploads but the catalog still works.
func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := h.checkDB(ctx)
	storage := sub{OK: true}
	if h.store == nil {
		storage = sub{Err: "no storage configured"}
	} else if err := h.store.CheckWritable(); err != nil {
		storage = sub{Err: err.Error()}
	}

	status := http.StatusOK
	if !db.OK {
		status = http.StatusServiceUnavailable
	}
	embedder := h.embedder
	if embedder == "" {
		embedder = "none"
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": db.OK, "degraded": db.OK && !storage.OK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"database": db,
			"storage":  storage,
		},
		"ai":   map[string]string{"provider": h.provider, "embedder": embedder},
		"time": time.Now().Format(time.RFC3339),
	}
	return c.JSON(status, resp)
}
