// Package main 提供 meshsync 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("meshsync/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 优先级（从高到低）：命令行参数 > LAIRIK_* 环境变量 > 配置文件 > 预设默认值
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	preset      = flag.String("preset", "", "预设配置 (field/demo)")
	demo        = flag.Bool("demo", false, "演示模式：进程内节点 + 内存存储")
	dataDir     = flag.String("data-dir", "", "数据目录（默认: ./data）")
	wsURL       = flag.String("url", "", "协调节点 WebSocket 地址")
	metricsAddr = flag.String("metrics-addr", "", "Prometheus /metrics 监听地址")

	profileName = flag.String("name", "", "本机尚无档案时以该名称创建")
	profileRole = flag.String("role", "student", "创建档案时的角色 (student/verifier/admin/camp_coordinator)")

	verbose     = flag.Bool("verbose", false, "输出调试日志与依赖注入日志")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(meshsync.VersionInfo())
		return nil
	}

	fxLogger, err := setupLogging()
	if err != nil {
		return err
	}

	client, err := meshsync.New(buildOptions(fxLogger)...)
	if err != nil {
		return fmt.Errorf("创建客户端失败: %w", err)
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("启动 meshsync", "version", meshsync.Version, "commit", meshsync.GitCommit)
	unsub := watchEvents(client)
	defer unsub()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	if err := ensureProfile(ctx, client); err != nil {
		return err
	}

	addr := client.Config().Metrics.ListenAddr
	if isFlagSet("metrics-addr") {
		addr = *metricsAddr
	}
	if addr != "" {
		srv := serveMetrics(addr, client.MetricsRegistry())
		defer shutdownMetrics(srv)
	}

	go discoverLoop(ctx, client)

	fmt.Println("meshsync 已启动，按 Ctrl+C 退出")
	<-ctx.Done()
	fmt.Println("\n正在关闭...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return client.Stop(stopCtx)
}

// buildOptions 把命令行参数翻译为客户端选项
func buildOptions(fxLogger *zap.Logger) []meshsync.Option {
	opts := []meshsync.Option{meshsync.WithEnv(os.Getenv)}

	if *configFile != "" {
		opts = append(opts, meshsync.WithConfigFile(*configFile))
	}

	presetName := *preset
	if *demo {
		presetName = "demo"
	}
	if presetName != "" {
		opts = append(opts, meshsync.WithPreset(presetName))
	}

	if *dataDir != "" {
		opts = append(opts, meshsync.WithDataDir(*dataDir))
	}
	if *wsURL != "" {
		opts = append(opts, meshsync.WithTransportURL(*wsURL))
	}
	if fxLogger != nil {
		opts = append(opts, meshsync.WithFxLogger(fxLogger))
	}
	return opts
}

// setupLogging 按 LAIRIK_LOG_LEVEL / LAIRIK_LOG_FORMAT 配置日志
//
// -verbose 时强制 debug 级别，并返回用于依赖注入日志的 zap logger。
func setupLogging() (*zap.Logger, error) {
	level, err := log.ParseLevel(os.Getenv(config.EnvPrefix + config.EnvLogLevel))
	if err != nil {
		return nil, err
	}
	format := log.ParseFormat(os.Getenv(config.EnvPrefix + config.EnvLogFormat))
	if *verbose {
		level = log.LevelDebug
	}
	log.Setup(os.Stderr, level, format)

	if !*verbose {
		return nil, nil
	}
	return zap.NewDevelopment()
}

// ensureProfile 本机没有档案且指定了 -name 时创建档案
func ensureProfile(ctx context.Context, client *meshsync.Client) error {
	if p, ok := client.Profile(); ok {
		fmt.Printf("本机档案: %s (%s)\n", p.DisplayName, p.DID)
		return nil
	}
	if *profileName == "" {
		fmt.Println("本机尚无档案，使用 -name 创建")
		return nil
	}
	p, err := client.CreateProfile(ctx, types.ProfileInput{
		DisplayName: *profileName,
		Role:        types.Role(*profileRole),
	})
	if err != nil {
		return fmt.Errorf("创建档案失败: %w", err)
	}
	fmt.Printf("已创建档案: %s (%s)\n", p.DisplayName, p.DID)
	return nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
