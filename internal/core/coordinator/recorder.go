package coordinator

import (
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// Recorder 协调器指标接收者
//
// 由 internal/core/metrics 实现；未注入时使用空实现。
type Recorder interface {
	// FrameReceived 成功处理一个入站帧
	FrameReceived(frameType string, size int)

	// FrameSent 成功发出一个出站帧
	FrameSent(frameType string, size int)

	// ProtocolError 丢弃一个畸形或未知的帧
	ProtocolError(frameType string)

	// ConnState 传输状态变化
	ConnState(state types.ConnState)

	// SyncFinished 一次同步结束
	SyncFinished(d time.Duration, err error)

	// Discovery 一次发现完成
	Discovery(source types.DiscoverySource)
}

type nopRecorder struct{}

func (nopRecorder) FrameReceived(string, int)         {}
func (nopRecorder) FrameSent(string, int)             {}
func (nopRecorder) ProtocolError(string)              {}
func (nopRecorder) ConnState(types.ConnState)         {}
func (nopRecorder) SyncFinished(time.Duration, error) {}
func (nopRecorder) Discovery(types.DiscoverySource)   {}
