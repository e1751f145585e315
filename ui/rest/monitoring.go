package rest

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/pkg/botmonitor"
	"github.com/dvergaraf/wacrm/pkg/dedup"
	"github.com/dvergaraf/wacrm/pkg/liveness"
	"github.com/dvergaraf/wacrm/pkg/msgworker"
	"github.com/dvergaraf/wacrm/ui/websocket"
)

// Monitoring aggregates pipeline counters, pool stats and hub state for
// the dashboard's monitoring view.
type Monitoring struct {
	Monitor  *botmonitor.Monitor
	Pool     *msgworker.Pool
	Hub      *websocket.Hub
	Ledger   *dedup.Ledger
	Registry *liveness.Registry

	startedAt time.Time
}

func InitRestMonitoring(app fiber.Router, monitor *botmonitor.Monitor, pool *msgworker.Pool, hub *websocket.Hub, ledger *dedup.Ledger, registry *liveness.Registry) Monitoring {
	handler := Monitoring{
		Monitor:   monitor,
		Pool:      pool,
		Hub:       hub,
		Ledger:    ledger,
		Registry:  registry,
		startedAt: time.Now(),
	}

	group := app.Group("/monitoring")
	group.Get("/stats", handler.GetStats)
	group.Get("/workerpool", handler.GetWorkerPoolStats)
	group.Get("/settings", handler.GetSettings)

	return handler
}

func (h *Monitoring) GetStats(c *fiber.Ctx) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(fiber.Map{
		"pipeline":      h.Monitor.GetStats(),
		"worker_pool":   h.Pool.GetStats(),
		"ws_clients":    h.Hub.ClientCount(),
		"dedup_entries": h.Ledger.Len(),
		"tracked_chats": h.Registry.Len(),
		"uptime":        humanize.Time(h.startedAt),
		"memory_alloc":  humanize.Bytes(mem.Alloc),
		"goroutines":    runtime.NumGoroutine(),
	})
}

func (h *Monitoring) GetWorkerPoolStats(c *fiber.Ctx) error {
	return c.JSON(h.Pool.GetStats())
}

func (h *Monitoring) GetSettings(c *fiber.Ctx) error {
	return c.JSON(config.GetAllSettings())
}
