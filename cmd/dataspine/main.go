package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dataspine-go/config"
	"dataspine-go/infrastructure/alert"
	"dataspine-go/infrastructure/logger"
	"dataspine-go/infrastructure/monitor"
	"dataspine-go/internal/audit"
	"dataspine-go/internal/batchfile"
	"dataspine-go/invariant"
	"dataspine-go/metrics"
	"dataspine-go/schema"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用默认配置")
	mode := flag.String("mode", "live", "运行模式：live 或 backfill")
	client := flag.String("client", "", "只审计该客户的成交")
	dryRun := flag.Bool("dryRun", false, "只打印执行计划，不读取数据")
	start := flag.String("start", "", "backfill 开始日期 YYYY-MM-DD")
	end := flag.String("end", "", "backfill 结束日期 YYYY-MM-DD（含）")
	ticksPath := flag.String("ticks", "", "原始行情 JSON Lines 文件")
	tradesPath := flag.String("trades", "", "原始成交 JSON Lines 文件")
	replayPath := flag.String("replay", "", "已存储成交 JSON Lines 文件，按契约重新审计")
	symbolsPath := flag.String("symbols", "", "已知代码列表文件，覆盖配置")
	strict := flag.Bool("strict", false, "未知代码视为失败")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus metrics 监听地址，覆盖配置")
	watch := flag.Bool("watch", false, "代码列表变化时重新审计，直到退出")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *symbolsPath != "" {
		cfg.Validation.SymbolsFile = *symbolsPath
	}
	if *strict {
		cfg.Validation.StrictReferential = true
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}

	opts, err := buildOptions(*mode, *client, *start, *end, cfg.Validation)
	if err != nil {
		log.Fatalf("参数错误: %v", err)
	}

	if *dryRun {
		printPlan(os.Stdout, opts, cfg, *ticksPath, *tradesPath, *replayPath, *watch)
		return
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	mon := monitor.New(cfg.Metrics.Config)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := metrics.StartMetricsServer(cfg.Metrics.Addr, mon.Registry())
		lg.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
		go func() {
			if err, ok := <-srv.Err(); ok && err != nil {
				lg.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	auditOpts := []audit.Option{audit.WithLogger(lg), audit.WithMonitor(mon)}
	if cfg.Alert.Enabled {
		auditOpts = append(auditOpts, audit.WithReporter(newAlertManager(cfg.Alert, lg)))
	}
	auditor := audit.NewAuditor(auditOpts...)

	in, err := readInput(*ticksPath, *tradesPath, *replayPath)
	if err != nil {
		lg.LogError(err, nil)
		os.Exit(2)
	}
	if cfg.Validation.SymbolsFile != "" {
		symbols, err := config.LoadSymbols(cfg.Validation.SymbolsFile)
		if err != nil {
			lg.LogError(err, map[string]interface{}{"path": cfg.Validation.SymbolsFile})
			os.Exit(2)
		}
		opts.Known = invariant.NewSymbolSet(symbols...)
	}

	passed, err := runOnce(ctx, auditor, in, opts, os.Stdout)
	if err != nil {
		lg.LogError(err, nil)
		os.Exit(2)
	}

	if *watch {
		if cfg.Validation.SymbolsFile == "" {
			lg.Warn("watch requested without a symbols file, nothing to watch")
		} else {
			passed = watchSymbols(ctx, cfg.Validation.SymbolsFile, auditor, in, opts, lg, passed)
		}
	}
	if !passed {
		os.Exit(1)
	}
}

func buildOptions(mode, client, start, end string, vc config.ValidationConfig) (audit.Options, error) {
	m, err := audit.ParseMode(mode)
	if err != nil {
		return audit.Options{}, err
	}
	w, err := audit.ParseWindow(start, end)
	if err != nil {
		return audit.Options{}, err
	}
	opts := audit.Options{
		Mode:           m,
		Client:         client,
		Window:         w,
		Strict:         vc.StrictReferential,
		UniqueKey:      vc.UniqueKey,
		UniqueScope:    vc.UniqueScope,
		FailOnRejected: vc.FailOnRejected,
	}
	return opts, opts.Validate()
}

func readInput(ticksPath, tradesPath, replayPath string) (audit.Input, error) {
	var in audit.Input
	var err error
	if in.Ticks, in.BadTicks, err = batchfile.ReadFile(ticksPath, batchfile.ReadRaw[schema.RawMarketTick]); err != nil {
		return in, err
	}
	if in.Trades, in.BadTrades, err = batchfile.ReadFile(tradesPath, batchfile.ReadRaw[schema.RawTrade]); err != nil {
		return in, err
	}
	if in.Stored, in.BadStored, err = batchfile.ReadFile(replayPath, batchfile.ReadStoredTrades); err != nil {
		return in, err
	}
	return in, nil
}

func runOnce(ctx context.Context, a *audit.Auditor, in audit.Input, opts audit.Options, out io.Writer) (bool, error) {
	rep, err := a.Run(ctx, in, opts)
	if err != nil {
		return false, err
	}
	if err := rep.WriteJSON(out); err != nil {
		return false, fmt.Errorf("write report: %w", err)
	}
	return rep.Passed, nil
}

// watchSymbols 代码列表每次成功重载后重跑一次审计，返回最后一次结果
func watchSymbols(ctx context.Context, path string, a *audit.Auditor, in audit.Input, opts audit.Options, lg *logger.Logger, passed bool) bool {
	w, err := config.NewWatcher(path, time.Second, lg)
	if err != nil {
		lg.LogError(err, map[string]interface{}{"path": path})
		return passed
	}
	lg.Info("watching symbols file", zap.String("path", path))
	err = w.Run(ctx, func(symbols []string) {
		opts.Known = invariant.NewSymbolSet(symbols...)
		ok, err := runOnce(ctx, a, in, opts, os.Stdout)
		if err != nil {
			lg.LogError(err, nil)
			return
		}
		passed = ok
	})
	if err != nil && ctx.Err() == nil {
		lg.LogError(err, nil)
	}
	return passed
}

func newAlertManager(cfg config.AlertConfig, lg *logger.Logger) *alert.Manager {
	channels := make([]alert.Channel, 0, len(cfg.Channels))
	for _, name := range cfg.Channels {
		switch name {
		case "log":
			channels = append(channels, alert.NewLogChannel(name, lg))
		case "console":
			channels = append(channels, alert.NewConsoleChannel(name, os.Stderr))
		}
	}
	return alert.NewManager(channels, time.Duration(cfg.ThrottleSeconds)*time.Second, nil)
}

func printPlan(out io.Writer, opts audit.Options, cfg config.AppConfig, ticks, trades, replay string, watch bool) {
	fmt.Fprintf(out, "mode:        %s\n", opts.Mode)
	if opts.Client != "" {
		fmt.Fprintf(out, "client:      %s\n", opts.Client)
	}
	if !opts.Window.IsZero() {
		fmt.Fprintf(out, "window:      %s .. %s (exclusive)\n",
			opts.Window.Start.Format(time.DateOnly), opts.Window.End.Format(time.DateOnly))
	}
	for _, f := range []struct{ name, path string }{{"ticks", ticks}, {"trades", trades}, {"replay", replay}} {
		if f.path != "" {
			fmt.Fprintf(out, "%-12s %s\n", f.name+":", f.path)
		}
	}
	symbols := cfg.Validation.SymbolsFile
	if symbols == "" {
		symbols = "(derived from ticks)"
	}
	fmt.Fprintf(out, "symbols:     %s strict=%t\n", symbols, opts.Strict)
	scope := opts.UniqueScope
	if scope == "" {
		scope = "(global)"
	}
	fmt.Fprintf(out, "uniqueness:  %s within %s\n", opts.UniqueKey, scope)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "metrics:     %s\n", cfg.Metrics.Addr)
	}
	if cfg.Alert.Enabled {
		fmt.Fprintf(out, "alerts:      %v\n", cfg.Alert.Channels)
	}
	if watch {
		fmt.Fprintln(out, "watch:       rerun on symbols change")
	}
	fmt.Fprintln(out, "dry run: no data read")
}
