package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/aircache/aircache/internal/cache"
	"github.com/aircache/aircache/internal/config"
	"github.com/aircache/aircache/internal/logging"
	"github.com/aircache/aircache/internal/proxy"
	"github.com/aircache/aircache/internal/server"
	"github.com/aircache/aircache/internal/server/routes"
	"github.com/aircache/aircache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	printConfig bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	if opts.printConfig {
		if err := printEffectiveConfig(cfg); err != nil {
			fmt.Fprintf(stdErr, "输出配置失败: %v\n", err)
			return 1
		}
		return 0
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		for key, value := range logging.SlotFields(cfg.Slot.Route, cfg.Slot.Upstream, cfg.Slot.CachePath) {
			fields[key] = value
		}
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 缓存槽 → Fetcher → Fiber server。
	store, err := cache.NewStore(cfg.Slot.CachePath)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存文件失败: %v\n", err)
		return 1
	}

	fetcher, err := proxy.NewFetcher(proxy.FetcherOptions{
		Client:          server.NewUpstreamClient(cfg),
		Logger:          logger,
		Store:           store,
		Route:           cfg.Slot.Route,
		Upstream:        cfg.Slot.Upstream,
		CachePath:       cfg.Slot.CachePath,
		FreshnessWindow: cfg.Slot.FreshnessWindow.DurationValue(),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化 Fetcher 失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	for key, value := range logging.SlotFields(cfg.Slot.Route, cfg.Slot.Upstream, cfg.Slot.CachePath) {
		fields[key] = value
	}
	fields["freshness_window"] = cfg.Slot.FreshnessWindow.DurationValue().String()
	fields["upstream_timeout"] = cfg.Slot.UpstreamTimeout.DurationValue().String()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, fetcher, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("aircache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		printCfg   bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 AIRCACHE_CONFIG 提供；留空则使用内置默认值）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&printCfg, "print-config", false, "以 YAML 输出生效配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("AIRCACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		printConfig: printCfg,
		showVersion: showVer,
	}, nil
}

// printEffectiveConfig 以 YAML 形式输出合并默认值/文件/环境变量之后的配置。
func printEffectiveConfig(cfg *config.Config) error {
	encoder := yaml.NewEncoder(stdOut)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg.Summarize()); err != nil {
		return err
	}
	return encoder.Close()
}

func startHTTPServer(cfg *config.Config, fetcher *proxy.Fetcher, logger *logrus.Logger) error {
	app, err := server.NewApp(server.AppOptions{
		Logger: logger,
		Route:  cfg.Slot.Route,
		Proxy:  proxy.NewHandler(fetcher, logger),
	})
	if err != nil {
		return err
	}
	routes.RegisterStatusRoutes(app, fetcher)

	addr := cfg.Global.ListenAddr()
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"addr":   addr,
		"route":  cfg.Slot.Route,
	}).Info("Fiber 服务启动")

	return app.Listen(addr)
}
