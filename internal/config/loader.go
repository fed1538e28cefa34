package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量覆盖配置时使用的前缀，例如 AIRCACHE_SLOT_UPSTREAM。
const EnvPrefix = "AIRCACHE"

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
// path 为空时不读取文件，仅使用内置默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absCache, err := filepath.Abs(cfg.Slot.CachePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存文件路径: %w", err)
	}
	cfg.Slot.CachePath = absCache

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenHost", DefaultListenHost)
	v.SetDefault("ListenPort", DefaultListenPort)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Slot.Route", DefaultRoute)
	v.SetDefault("Slot.CachePath", DefaultCachePath)
	v.SetDefault("Slot.Upstream", DefaultUpstream)
	v.SetDefault("Slot.FreshnessWindow", DefaultFreshnessWindow)
	v.SetDefault("Slot.UpstreamTimeout", DefaultUpstreamTimeout)
}

// 默认值即原有的固定常量，仅通过 setDefaults 注入；显式写出的零值会交给 Validate 拒绝。
const (
	DefaultListenHost      = "127.0.0.1"
	DefaultListenPort      = 8080
	DefaultRoute           = "/purpleair_cache.data.json"
	DefaultCachePath       = "/tmp/cache.data.json"
	DefaultUpstream        = "https://www.purpleair.com/data.json"
	DefaultFreshnessWindow = 60 * time.Minute
	DefaultUpstreamTimeout = 30 * time.Second
)

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			var d Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, fmt.Errorf("无法解析 Duration 字段: %w", err)
			}
			return d, nil
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
