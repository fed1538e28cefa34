package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/aircache/aircache/internal/proxy"
)

// StatusPath 是缓存槽诊断接口的固定路径。
const StatusPath = "/-/status"

// StatusReporter 提供缓存槽快照，通常由 *proxy.Fetcher 实现。
type StatusReporter interface {
	Status(ctx context.Context) (proxy.SlotStatus, error)
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，便于确认缓存槽年龄与新鲜度。
// 该接口只读取文件信息，不会触发刷新。
func RegisterStatusRoutes(app *fiber.App, reporter StatusReporter) {
	if app == nil || reporter == nil {
		return
	}

	app.Get(StatusPath, func(c fiber.Ctx) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		status, err := reporter.Status(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "status_unavailable"})
		}
		return c.JSON(encodeStatus(status))
	})
}

type statusPayload struct {
	Route                  string     `json:"route"`
	Upstream               string     `json:"upstream"`
	CachePath              string     `json:"cache_path"`
	FreshnessWindowSeconds int64      `json:"freshness_window_seconds"`
	Exists                 bool       `json:"exists"`
	SizeBytes              int64      `json:"size_bytes"`
	ModifiedAt             *time.Time `json:"modified_at,omitempty"`
	AgeSeconds             int64      `json:"age_seconds"`
	Fresh                  bool       `json:"fresh"`
}

func encodeStatus(status proxy.SlotStatus) statusPayload {
	payload := statusPayload{
		Route:                  status.Route,
		Upstream:               status.Upstream,
		CachePath:              status.CachePath,
		FreshnessWindowSeconds: int64(status.FreshnessWindow / time.Second),
		Exists:                 status.Exists,
	}
	if !status.Exists {
		return payload
	}
	modified := status.ModifiedAt.UTC()
	payload.SizeBytes = status.SizeBytes
	payload.ModifiedAt = &modified
	payload.AgeSeconds = int64(status.Age / time.Second)
	payload.Fresh = status.Fresh
	return payload
}
