package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/kv"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/crypto"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/profile")

// 持久化键（位于 kv.PrefixProfile 之下）
var (
	keyProfile    = []byte("lairik_profile")
	keyPrivateKey = []byte("lairik_profile_key")
)

// 编译时检查接口实现
var _ pkgif.ProfileStore = (*Store)(nil)

// Store 本机身份档案
//
// 修改顺序固定为：持久化 -> 更新内存 -> 广播。持久化失败时
// 内存状态不变，也不发布任何事件。
type Store struct {
	kv          *kv.Store
	broadcaster pkgif.Broadcaster
	clock       clock.Clock
	rand        io.Reader

	// writeMu 串行化修改
	writeMu sync.Mutex

	mu      sync.RWMutex
	profile *types.Profile
	key     *crypto.PrivateKey
}

// Option 档案存储选项
type Option func(*Store)

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(s *Store) { s.clock = clk }
}

// WithRand 设置密钥生成使用的随机源
func WithRand(r io.Reader) Option {
	return func(s *Store) { s.rand = r }
}

// New 创建档案存储
//
// broadcaster 为 nil 时修改只做持久化，不发布事件。
func New(store *kv.Store, broadcaster pkgif.Broadcaster, opts ...Option) *Store {
	s := &Store{
		kv:          store,
		broadcaster: broadcaster,
		clock:       clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
//                              加载
// ============================================================================

// Load 从持久化存储加载档案
//
// 尚未创建档案不是错误。
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var p types.Profile
	if err := s.kv.GetJSON(keyProfile, &p); err != nil {
		if engine.IsNotFound(err) {
			logger.Debug("本机尚无档案")
			return nil
		}
		return &types.PersistenceError{Op: "load", Key: string(keyProfile), Err: err}
	}

	raw, err := s.kv.Get(keyPrivateKey)
	if err != nil {
		return &types.PersistenceError{Op: "load", Key: string(keyPrivateKey), Err: err}
	}
	key, err := crypto.UnmarshalPrivateKey(raw)
	if err != nil {
		return &types.PersistenceError{Op: "load", Key: string(keyPrivateKey), Err: err}
	}

	s.mu.Lock()
	s.profile = &p
	s.key = key
	s.mu.Unlock()

	logger.Info("已加载本机档案", "did", p.DID)
	return nil
}

// ============================================================================
//                              查询
// ============================================================================

// Profile 返回当前档案副本
func (s *Store) Profile() (types.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return types.Profile{}, false
	}
	return s.profile.Clone(), true
}

// Sign 用本机私钥签名
func (s *Store) Sign(payload []byte) ([]byte, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()
	if key == nil {
		return nil, types.ErrNoProfile
	}
	return key.Sign(payload)
}

// ============================================================================
//                              修改
// ============================================================================

// CreateProfile 创建档案
//
// 生成 UUID、DID 与 P-256 密钥对，档案与私钥在同一事务中写入。
// 本机已有档案时返回 types.ErrProfileExists。
func (s *Store) CreateProfile(ctx context.Context, in types.ProfileInput) (types.Profile, error) {
	if err := ctx.Err(); err != nil {
		return types.Profile{}, err
	}
	role := in.Role
	if role == "" {
		role = types.RoleStudent
	}
	if !role.Valid() {
		return types.Profile{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}

	s.writeMu.Lock()
	if _, ok := s.Profile(); ok {
		s.writeMu.Unlock()
		return types.Profile{}, types.ErrProfileExists
	}

	key, err := crypto.GenerateKey(s.rand)
	if err != nil {
		s.writeMu.Unlock()
		return types.Profile{}, fmt.Errorf("generate key: %w", err)
	}
	pub, err := key.Public().Bytes()
	if err != nil {
		s.writeMu.Unlock()
		return types.Profile{}, fmt.Errorf("encode public key: %w", err)
	}
	priv, err := key.Marshal()
	if err != nil {
		s.writeMu.Unlock()
		return types.Profile{}, fmt.Errorf("encode private key: %w", err)
	}

	id := uuid.NewString()
	now := s.clock.Now()
	p := types.Profile{
		ID:           id,
		DID:          types.DIDPrefix + id,
		DisplayName:  in.DisplayName,
		Avatar:       in.Avatar,
		Bio:          in.Bio,
		Location:     in.Location,
		Role:         role,
		DocumentRefs: []types.ContentID{},
		CreatedAt:    now,
		UpdatedAt:    now,
		PublicKey:    pub,
	}
	if in.Contact != nil {
		contact := *in.Contact
		p.Contact = &contact
	}
	if len(in.Metadata) > 0 {
		p.Metadata = maps.Clone(in.Metadata)
	}

	err = s.kv.Update(func(txn *kv.Txn) error {
		if err := txn.SetJSON(keyProfile, p); err != nil {
			return err
		}
		return txn.Set(keyPrivateKey, priv)
	})
	if err != nil {
		s.writeMu.Unlock()
		return types.Profile{}, &types.PersistenceError{Op: "create", Key: string(keyProfile), Err: err}
	}

	s.mu.Lock()
	stored := p.Clone()
	s.profile = &stored
	s.key = key
	s.mu.Unlock()
	s.writeMu.Unlock()

	logger.Info("已创建本机档案", "did", p.DID, "role", p.Role)
	s.broadcast(ctx, types.ProfileCreated{BaseEvent: types.NewBaseEvent(now), Profile: p.Clone()})
	return p, nil
}

// UpdateProfile 部分更新档案
func (s *Store) UpdateProfile(ctx context.Context, u types.ProfileUpdate) (types.Profile, error) {
	if u.Role != nil && !u.Role.Valid() {
		return types.Profile{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, *u.Role)
	}
	return s.mutate(ctx, "update", func(p types.Profile) (types.Profile, bool) {
		return u.Apply(p), true
	})
}

// AddDocument 向档案追加文档
//
// 已存在的内容 ID 是空操作，不写入也不广播。
func (s *Store) AddDocument(ctx context.Context, cid types.ContentID) (types.Profile, error) {
	if cid.IsEmpty() {
		return types.Profile{}, types.ErrEmptyContentID
	}
	return s.mutate(ctx, "add_document", func(p types.Profile) (types.Profile, bool) {
		if slices.Contains(p.DocumentRefs, cid) {
			return p, false
		}
		p.DocumentRefs = append(p.DocumentRefs, cid)
		return p, true
	})
}

// mutate 对当前档案应用 fn 并按 持久化 -> 内存 -> 广播 的顺序提交
//
// fn 返回 false 表示没有变化。
func (s *Store) mutate(ctx context.Context, op string, fn func(types.Profile) (types.Profile, bool)) (types.Profile, error) {
	if err := ctx.Err(); err != nil {
		return types.Profile{}, err
	}

	s.writeMu.Lock()
	current, ok := s.Profile()
	if !ok {
		s.writeMu.Unlock()
		return types.Profile{}, types.ErrNoProfile
	}

	next, changed := fn(current)
	if !changed {
		s.writeMu.Unlock()
		return current, nil
	}
	now := s.clock.Now()
	next.ID = current.ID
	next.DID = current.DID
	next.CreatedAt = current.CreatedAt
	next.PublicKey = current.PublicKey
	next.UpdatedAt = now
	if !now.After(current.UpdatedAt) {
		// 时钟未前进时仍保证 UpdatedAt 单调递增
		next.UpdatedAt = current.UpdatedAt.Add(1)
	}

	if err := s.kv.PutJSON(keyProfile, next); err != nil {
		s.writeMu.Unlock()
		return types.Profile{}, &types.PersistenceError{Op: op, Key: string(keyProfile), Err: err}
	}

	s.mu.Lock()
	stored := next.Clone()
	s.profile = &stored
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.broadcast(ctx, types.ProfileUpdated{BaseEvent: types.NewBaseEvent(now), Profile: next.Clone()})
	return next, nil
}

// DeleteProfile 删除档案及私钥
//
// 本机没有档案时返回 types.ErrNoProfile。
func (s *Store) DeleteProfile(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, ok := s.Profile()
	if !ok {
		return types.ErrNoProfile
	}

	err := s.kv.Update(func(txn *kv.Txn) error {
		if err := txn.Delete(keyProfile); err != nil {
			return err
		}
		return txn.Delete(keyPrivateKey)
	})
	if err != nil {
		return &types.PersistenceError{Op: "delete", Key: string(keyProfile), Err: err}
	}

	s.mu.Lock()
	s.profile = nil
	s.key = nil
	s.mu.Unlock()

	logger.Info("已删除本机档案", "did", p.DID)
	return nil
}

// broadcast 发布档案事件
//
// 广播失败不回滚已持久化的修改，只记录日志。
func (s *Store) broadcast(ctx context.Context, ev types.MeshEvent) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.BroadcastProfileEvent(ctx, ev, s); err != nil {
		logger.Warn("档案事件广播失败", "kind", ev.Kind(), "error", err)
	}
}

// ============================================================================
//                              文档跟踪
// ============================================================================

// Attach 订阅 document_added，把本机持有的文档记入档案
func (s *Store) Attach(bus pkgif.EventBus) pkgif.Unsubscribe {
	return bus.Subscribe(types.EventDocumentAdded, func(ev types.MeshEvent) {
		added, ok := ev.(types.DocumentAdded)
		if !ok {
			return
		}
		p, ok := s.Profile()
		if !ok || added.Document.OwnerID != p.ID {
			return
		}
		if _, err := s.AddDocument(context.Background(), added.Document.ContentID); err != nil && !errors.Is(err, types.ErrNoProfile) {
			logger.Warn("记录本机文档失败", "cid", log.TruncateID(added.Document.ContentID.String(), 16), "error", err)
		}
	})
}
