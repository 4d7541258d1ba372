package meshsync

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport/memory"
)

// Option 客户端选项
type Option func(*options) error

// options 内部选项集合
//
// 配置的生成顺序：基础配置（WithConfig / WithConfigFile / 默认）
// -> 预设 -> 环境变量 -> 单项覆盖。
type options struct {
	config     *config.Config
	configFile string
	preset     string
	getenv     func(string) string

	dataDir      string
	inMemory     bool
	transportURL string
	statusURL    string
	noStatus     bool

	memoryNode *memory.Node
	clock      clock.Clock

	fxLogger  *zap.Logger
	fxOptions []fx.Option
}

func newOptions() *options {
	return &options{}
}

// buildConfig 按优先级合成最终配置
func (o *options) buildConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case o.config != nil:
		c := *o.config
		cfg = &c
	case o.configFile != "":
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.NewConfig()
	}

	if err := config.ApplyPreset(cfg, o.preset); err != nil {
		return nil, err
	}
	if o.getenv != nil {
		if err := config.ApplyEnv(cfg, o.getenv); err != nil {
			return nil, err
		}
	}

	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
		cfg.Storage.InMemory = false
	}
	if o.inMemory {
		cfg.Storage.InMemory = true
		cfg.PeerCache.Persist = false
	}
	if o.memoryNode != nil && o.transportURL == "" {
		cfg.Transport.URL = o.memoryNode.URL()
	}
	if o.transportURL != "" {
		cfg.Transport = cfg.Transport.WithURL(o.transportURL)
	}
	if o.statusURL != "" {
		cfg.Status.BaseURL = o.statusURL
		cfg.Status.Enabled = true
	}
	if o.noStatus {
		cfg.Status.Enabled = false
	}

	if err := config.ValidateAll(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ============================================================================
//                              配置来源
// ============================================================================

// WithConfig 使用给定配置作为基础配置
//
// 配置会被复制，调用方之后的修改不影响客户端。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return ErrNilConfig
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载基础配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configFile = path
		return nil
	}
}

// WithPreset 应用预设（"field" 或 "demo"）
func WithPreset(name string) Option {
	return func(o *options) error {
		o.preset = name
		return nil
	}
}

// WithEnv 应用 LAIRIK_* 环境变量覆盖
//
// getenv 通常为 os.Getenv。
func WithEnv(getenv func(string) string) Option {
	return func(o *options) error {
		o.getenv = getenv
		return nil
	}
}

// ============================================================================
//                              单项覆盖
// ============================================================================

// WithDataDir 设置数据目录并启用磁盘存储
func WithDataDir(dir string) Option {
	return func(o *options) error {
		o.dataDir = dir
		return nil
	}
}

// WithInMemoryStorage 使用内存存储，档案与节点缓存不落盘
func WithInMemoryStorage() Option {
	return func(o *options) error {
		o.inMemory = true
		return nil
	}
}

// WithTransportURL 设置协调节点 WebSocket 地址
func WithTransportURL(u string) Option {
	return func(o *options) error {
		o.transportURL = u
		return nil
	}
}

// WithStatusURL 设置协调节点 HTTP 地址并启用状态查询
func WithStatusURL(u string) Option {
	return func(o *options) error {
		o.statusURL = u
		return nil
	}
}

// WithoutStatus 关闭 HTTP 状态查询
func WithoutStatus() Option {
	return func(o *options) error {
		o.noStatus = true
		return nil
	}
}

// WithMemoryNode 使用给定的进程内节点代替协调节点
//
// 未另行设置传输地址时，地址指向该节点。
func WithMemoryNode(n *memory.Node) Option {
	return func(o *options) error {
		o.memoryNode = n
		return nil
	}
}

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// ============================================================================
//                              Fx
// ============================================================================

// WithFxLogger 输出 Fx 依赖注入日志，默认静默
func WithFxLogger(l *zap.Logger) Option {
	return func(o *options) error {
		o.fxLogger = l
		return nil
	}
}

// WithFxOptions 追加 Fx 选项（替换或装饰内部组件）
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
