package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 识别 "30s"、"60m" 这类 Go Duration 写法，或按秒解释的数字（可带小数）。
// 配置加载时的字符串值也经由此处解析。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("invalid duration value: %s", raw)
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级行为：监听地址与日志输出。
type GlobalConfig struct {
	ListenHost    string `mapstructure:"ListenHost"`
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// SlotConfig 描述唯一的缓存槽：对外路由、磁盘文件、上游地址以及新鲜度窗口。
type SlotConfig struct {
	Route           string   `mapstructure:"Route"`
	CachePath       string   `mapstructure:"CachePath"`
	Upstream        string   `mapstructure:"Upstream"`
	FreshnessWindow Duration `mapstructure:"FreshnessWindow"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Slot   SlotConfig   `mapstructure:"Slot"`
}

// ListenAddr 返回 host:port 形式的监听地址。
func (g GlobalConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", g.ListenHost, g.ListenPort)
}

// Summary 是用于 -print-config 输出的扁平视图，Duration 以字符串呈现。
type Summary struct {
	ListenHost      string `yaml:"listen_host"`
	ListenPort      int    `yaml:"listen_port"`
	LogLevel        string `yaml:"log_level"`
	LogFilePath     string `yaml:"log_file_path,omitempty"`
	Route           string `yaml:"route"`
	CachePath       string `yaml:"cache_path"`
	Upstream        string `yaml:"upstream"`
	FreshnessWindow string `yaml:"freshness_window"`
	UpstreamTimeout string `yaml:"upstream_timeout"`
}

// Summarize 输出当前生效配置的摘要。
func (c *Config) Summarize() Summary {
	return Summary{
		ListenHost:      c.Global.ListenHost,
		ListenPort:      c.Global.ListenPort,
		LogLevel:        c.Global.LogLevel,
		LogFilePath:     c.Global.LogFilePath,
		Route:           c.Slot.Route,
		CachePath:       c.Slot.CachePath,
		Upstream:        c.Slot.Upstream,
		FreshnessWindow: c.Slot.FreshnessWindow.DurationValue().String(),
		UpstreamTimeout: c.Slot.UpstreamTimeout.DurationValue().String(),
	}
}
