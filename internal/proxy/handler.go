package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/aircache/aircache/internal/server"
)

// Handler 将 Fetcher 暴露为 Fiber handler：总是从缓存槽返回 JSON 正文。
type Handler struct {
	fetcher *Fetcher
	logger  *logrus.Logger
}

// NewHandler constructs the cache route handler.
func NewHandler(fetcher *Fetcher, logger *logrus.Logger) *Handler {
	return &Handler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Handle 执行新鲜度检查与条件刷新，随后流式返回缓存槽内容。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	read, result, err := h.fetcher.Serve(ctx)
	if err != nil {
		if errors.Is(err, ErrCacheUnavailable) {
			h.logResult(requestID, fiber.StatusServiceUnavailable, result, started, err)
			return h.writeError(c, fiber.StatusServiceUnavailable, "cache_unavailable")
		}
		h.logResult(requestID, fiber.StatusInternalServerError, result, started, err)
		return h.writeError(c, fiber.StatusInternalServerError, "cache_read_failed")
	}
	defer read.Reader.Close()

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set("X-Aircache-Refresh", string(result.Outcome))
	if length := read.Entry.SizeBytes; length > 0 {
		c.Response().Header.SetContentLength(int(length))
	}
	c.Status(fiber.StatusOK)

	_, err = io.Copy(c.Response().BodyWriter(), read.Reader)
	h.logResult(requestID, fiber.StatusOK, result, started, err)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("read cache failed: %v", err))
	}
	return nil
}

func (h *Handler) writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *Handler) logResult(requestID string, status int, result RefreshResult, started time.Time, err error) {
	fields := h.fetcher.fields("serve")
	fields["status"] = status
	fields["refresh"] = string(result.Outcome)
	fields["refresh_shared"] = result.Shared
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("serve_failed")
		return
	}
	h.logger.WithFields(fields).Info("serve_complete")
}
