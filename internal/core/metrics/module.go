package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/coordinator"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/eventbus"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "metrics"
	Description = "Prometheus 指标：事件、帧流量、连接状态与同步延迟"
)

// Params 指标模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 指标模块导出结果
//
// 指标关闭时 Metrics 为 nil，Registry 仍然可用但为空。
type Result struct {
	fx.Out

	Registry *prometheus.Registry
	Observer eventbus.Observer
	Recorder coordinator.Recorder
	Metrics  *Metrics
}

// Module 返回指标 Fx 模块
//
// 提供 eventbus.Observer 与 coordinator.Recorder，注册表创建后
// 额外暴露节点与文档数量。
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideMetrics),
		fx.Invoke(func(m *Metrics, reg pkgif.Registry) { m.WatchRegistry(reg) }),
	)
}

// ProvideMetrics 创建独立的 Prometheus 注册表并注册指标
func ProvideMetrics(p Params) (Result, error) {
	cfg := config.DefaultMetricsConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Metrics
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	reg := prometheus.NewRegistry()
	if !cfg.Enabled {
		logger.Debug("指标采集已关闭")
		return Result{Registry: reg}, nil
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := New(cfg.Namespace, reg)
	return Result{Registry: reg, Observer: m, Recorder: m, Metrics: m}, nil
}
