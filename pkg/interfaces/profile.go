package interfaces

import (
	"context"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ProfileStore 本机身份档案
//
// 所有修改先持久化，成功后才更新内存并广播。
type ProfileStore interface {
	Signer

	// Load 从持久化存储加载档案
	Load(ctx context.Context) error

	// Profile 返回当前档案副本
	Profile() (types.Profile, bool)

	// CreateProfile 创建档案，已存在时返回 types.ErrProfileExists
	CreateProfile(ctx context.Context, in types.ProfileInput) (types.Profile, error)

	// UpdateProfile 部分更新档案
	UpdateProfile(ctx context.Context, u types.ProfileUpdate) (types.Profile, error)

	// AddDocument 向档案追加文档（去重）
	AddDocument(ctx context.Context, cid types.ContentID) (types.Profile, error)

	// DeleteProfile 删除档案及私钥
	DeleteProfile(ctx context.Context) error
}
