package interfaces

import (
	"context"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
)

// StatusQuerier 协调节点的 HTTP 状态查询
type StatusQuerier interface {
	QueryStatus(ctx context.Context) (protocol.StatusPayload, error)
}
