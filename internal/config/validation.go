package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if strings.TrimSpace(g.ListenHost) == "" {
		return newFieldError("Global.ListenHost", "不能为空")
	}
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}

	s := c.Slot
	if err := validateRoute(s.Route); err != nil {
		return fmt.Errorf("%s: %w", slotField("Route"), err)
	}
	if strings.TrimSpace(s.CachePath) == "" {
		return newFieldError(slotField("CachePath"), "不能为空")
	}
	if strings.HasSuffix(s.CachePath, "/") {
		return newFieldError(slotField("CachePath"), "必须指向文件而非目录")
	}
	if err := validateUpstream(s.Upstream); err != nil {
		return fmt.Errorf("%s: %w", slotField("Upstream"), err)
	}
	if s.FreshnessWindow.DurationValue() <= 0 {
		return newFieldError(slotField("FreshnessWindow"), "必须大于 0")
	}
	if s.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError(slotField("UpstreamTimeout"), "必须大于 0")
	}

	return nil
}

func validateRoute(route string) error {
	if route == "" {
		return errors.New("Route 不能为空")
	}
	if !strings.HasPrefix(route, "/") {
		return errors.New("Route 必须以 / 开头")
	}
	if strings.HasPrefix(route, "/-/") {
		return errors.New("/-/ 前缀保留给诊断接口")
	}
	if strings.ContainsAny(route, " ?#") {
		return errors.New("Route 不允许包含空格、查询串或片段")
	}
	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
