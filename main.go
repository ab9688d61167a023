package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/participant-hub/participant-hub/internal/auth"
	"github.com/participant-hub/participant-hub/internal/config"
	"github.com/participant-hub/participant-hub/internal/logging"
	"github.com/participant-hub/participant-hub/internal/metrics"
	"github.com/participant-hub/participant-hub/internal/router"
	"github.com/participant-hub/participant-hub/internal/server"
	"github.com/participant-hub/participant-hub/internal/server/routes"
	"github.com/participant-hub/participant-hub/internal/store"
	"github.com/participant-hub/participant-hub/internal/version"
)

const defaultConfigPath = "config.toml"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath string
	// configExplicit 为 false 时允许默认配置文件不存在。
	configExplicit bool
	checkOnly      bool
	showVersion    bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

// services 是启动阶段构建出的全部组件，run 与测试共用。
type services struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   *store.Store
	app     *fiber.App
	table   *router.Table
	metrics *metrics.Metrics
}

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(ctx context.Context, opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["app_env"] = cfg.Global.AppEnv
		fields["records_path"] = cfg.Global.RecordsPath
		fields["keys_path"] = cfg.Global.KeysPath
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["app_env"] = cfg.Global.AppEnv
	fields["tls"] = cfg.Global.TLSEnabled()
	fields["persist_mode"] = cfg.Global.PersistMode()
	fields["route_count"] = rt.table.Len()
	fields["routes"] = rt.table.Describe()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("服务启动")

	if err := serve(ctx, rt); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务运行失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("participant-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PARTICIPANT_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("PARTICIPANT_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath
	}

	return cliOptions{
		configPath:     path,
		configExplicit: explicit,
		checkOnly:      checkOnly,
		showVersion:    showVer,
	}, nil
}

func loadConfig(opts cliOptions) (*config.Config, error) {
	if opts.configExplicit {
		return config.Load(opts.configPath)
	}
	return config.LoadOrDefaults(opts.configPath)
}

// buildRuntime 遵循“指标 → 记录存储 → 凭证绑定 → 路由表 → Fiber app”的顺序，
// 所有请求共享同一份 Store 与 Binder。
func buildRuntime(cfg *config.Config, logger *logrus.Logger) (*services, error) {
	m := metrics.New()

	records, err := store.New(cfg.Global.RecordsPath, store.Options{
		Logger:     logger,
		Metrics:    m,
		SyncWrites: cfg.Global.SyncWrites,
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"action": "load",
		"path":   records.Dir(),
	}).Info("加载全部记录到内存")
	report, err := records.LoadAll()
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"action":  "load",
		"loaded":  report.Loaded,
		"skipped": report.Skipped,
	}).Info("记录加载完成")

	keys, err := auth.NewFileDigestStore(cfg.Global.KeysPath)
	if err != nil {
		return nil, err
	}
	binder := auth.NewBinder(keys, logger, m)

	table := router.NewTable()
	routes.Register(table, routes.Options{
		Store:       records,
		Binder:      binder,
		Logger:      logger,
		Metrics:     m,
		StaticPath:  cfg.Global.StaticPath,
		CacheStatic: !cfg.Global.IsDevelopment(),
	})

	app, err := server.NewApp(server.AppOptions{
		Logger:    logger,
		Table:     table,
		Metrics:   m,
		BodyLimit: cfg.Global.BodyLimit,
	})
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:     cfg,
		logger:  logger,
		store:   records,
		app:     app,
		table:   table,
		metrics: m,
	}, nil
}

// serve 监听直到 ctx 取消，然后按 ShutdownTimeout 优雅关闭并等待记录落盘。
func serve(ctx context.Context, rt *services) error {
	g := rt.cfg.Global
	listenCfg := fiber.ListenConfig{DisableStartupMessage: true}
	if g.TLSEnabled() {
		listenCfg.CertFile = g.TLSCertFile
		listenCfg.CertKeyFile = g.TLSKeyFile
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- rt.app.Listen(fmt.Sprintf(":%d", g.ListenPort), listenCfg)
	}()

	var listenErr error
	select {
	case listenErr = <-errCh:
	case <-ctx.Done():
		rt.logger.WithField("action", "shutdown").Info("收到退出信号，开始关闭")
		if err := rt.app.ShutdownWithTimeout(g.ShutdownTimeout.DurationValue()); err != nil {
			listenErr = err
		}
	}

	if err := rt.store.Close(); err != nil {
		rt.logger.WithField("action", "shutdown").WithError(err).Warn("关闭记录存储失败")
	}
	rt.logger.WithFields(logrus.Fields{
		"action":  "shutdown",
		"records": rt.store.Len(),
	}).Info("服务已退出")
	return listenErr
}
