package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/coordinator"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/eventbus"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/metrics")

// 编译时检查接口实现
var (
	_ eventbus.Observer    = (*Metrics)(nil)
	_ coordinator.Recorder = (*Metrics)(nil)
)

// 连接状态标签，按状态机顺序
var connStates = []types.ConnState{
	types.ConnStateIdle,
	types.ConnStateConnecting,
	types.ConnStateOpen,
	types.ConnStateClosing,
	types.ConnStateReconnecting,
	types.ConnStateFailed,
}

// Metrics 同步核心的 Prometheus 指标
//
// 所有方法对 nil 接收者安全，关闭指标时模块提供 nil *Metrics。
type Metrics struct {
	events      *prometheus.CounterVec
	panics      *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	frames      *prometheus.CounterVec
	frameBytes  *prometheus.CounterVec
	protoErrors *prometheus.CounterVec
	connState   *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	syncLatency *prometheus.HistogramVec
	discovery   *prometheus.CounterVec

	reg       prometheus.Registerer
	namespace string
	watchOnce sync.Once

	bw bandwidth
}

// New 在 reg 上注册全部指标
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg:       reg,
		namespace: namespace,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Mesh events published on the local bus.",
		}, []string{"kind"}),
		panics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_panics_total",
			Help:      "Recovered panics in event subscribers.",
		}, []string{"kind"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a channel subscriber was full.",
		}, []string{"kind"}),
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Protocol frames by direction and type.",
		}, []string{"direction", "type"}),
		frameBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_payload_bytes_total",
			Help:      "Frame payload bytes by direction and type.",
		}, []string{"direction", "type"}),
		protoErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound frames dropped as malformed or unknown.",
		}, []string{"type"}),
		connState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the current transport state, 0 otherwise.",
		}, []string{"state"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_transitions_total",
			Help:      "Transport state transitions by target state.",
		}, []string{"state"}),
		syncLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Latency of sync round trips.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
		discovery: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_total",
			Help:      "Peer discovery results by source.",
		}, []string{"source"}),
	}
}

// ============================================================================
//                              eventbus.Observer
// ============================================================================

// EventPublished 实现 eventbus.Observer
func (m *Metrics) EventPublished(kind types.EventKind) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(kind)).Inc()
}

// SubscriberPanicked 实现 eventbus.Observer
func (m *Metrics) SubscriberPanicked(kind types.EventKind) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(string(kind)).Inc()
}

// EventDropped 实现 eventbus.Observer
func (m *Metrics) EventDropped(kind types.EventKind) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(string(kind)).Inc()
}

// ============================================================================
//                              coordinator.Recorder
// ============================================================================

// FrameReceived 实现 coordinator.Recorder
func (m *Metrics) FrameReceived(frameType string, size int) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues("in", frameType).Inc()
	m.frameBytes.WithLabelValues("in", frameType).Add(float64(size))
	m.bw.logRecv(size)
}

// FrameSent 实现 coordinator.Recorder
func (m *Metrics) FrameSent(frameType string, size int) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues("out", frameType).Inc()
	m.frameBytes.WithLabelValues("out", frameType).Add(float64(size))
	m.bw.logSent(size)
}

// ProtocolError 实现 coordinator.Recorder
//
// 无法解码出类型的帧记为 "undecodable"。
func (m *Metrics) ProtocolError(frameType string) {
	if m == nil {
		return
	}
	if frameType == "" {
		frameType = "undecodable"
	}
	m.protoErrors.WithLabelValues(frameType).Inc()
}

// ConnState 实现 coordinator.Recorder
func (m *Metrics) ConnState(state types.ConnState) {
	if m == nil {
		return
	}
	for _, s := range connStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connState.WithLabelValues(s.String()).Set(v)
	}
	m.transitions.WithLabelValues(state.String()).Inc()
}

// SyncFinished 实现 coordinator.Recorder
func (m *Metrics) SyncFinished(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.syncLatency.WithLabelValues(result).Observe(d.Seconds())
}

// Discovery 实现 coordinator.Recorder
func (m *Metrics) Discovery(source types.DiscoverySource) {
	if m == nil {
		return
	}
	m.discovery.WithLabelValues(string(source)).Inc()
}

// ============================================================================
//                              注册表快照
// ============================================================================

// WatchRegistry 以 GaugeFunc 暴露注册表中的节点与文档数量
//
// 采集时读取注册表，只注册一次。
func (m *Metrics) WatchRegistry(reg pkgif.Registry) {
	if m == nil || reg == nil {
		return
	}
	m.watchOnce.Do(func() {
		f := promauto.With(m.reg)
		for _, status := range []types.PeerStatus{types.PeerStatusOnline, types.PeerStatusBusy, types.PeerStatusOffline} {
			status := status
			f.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   m.namespace,
				Name:        "peers",
				Help:        "Known peers by status.",
				ConstLabels: prometheus.Labels{"status": status.String()},
			}, func() float64 {
				n := 0
				for _, p := range reg.ListPeers() {
					if p.Status == status {
						n++
					}
				}
				return float64(n)
			})
		}
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      "documents",
			Help:      "Known document references.",
		}, func() float64 {
			return float64(len(reg.ListDocuments()))
		})
	})
}
