package types

import (
	"slices"
	"time"
)

// ContentID 内容寻址的文档标识
//
// 相同内容必然得到相同的 ContentID，生成方式见 pkg/lib/contentid。
type ContentID string

// String 返回字符串形式
func (c ContentID) String() string {
	return string(c)
}

// IsEmpty 是否为空
func (c ContentID) IsEmpty() bool {
	return c == ""
}

// DocumentRef 文档引用
//
// 只描述文档及其验证/共享标记，不包含文档内容本身。
// Verified 与 Shared 是单调的：一旦为 true，注册表不会再将其置回 false。
type DocumentRef struct {
	// ContentID 内容 ID
	ContentID ContentID `json:"cid"`

	// Name 文档名称（仅供展示）
	Name string `json:"name,omitempty"`

	// OwnerID 持有者节点 ID
	OwnerID string `json:"owner"`

	// Verified 是否已验证
	Verified bool `json:"verified"`

	// Shared 是否已共享
	Shared bool `json:"shared"`

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeFlags 合并单调标记
//
// 返回的副本保留 other 的描述字段，但 Verified/Shared 只会从 false 变为 true。
func (d DocumentRef) MergeFlags(other DocumentRef) DocumentRef {
	merged := other
	merged.Verified = d.Verified || other.Verified
	merged.Shared = d.Shared || other.Shared
	if merged.Name == "" {
		merged.Name = d.Name
	}
	if merged.OwnerID == "" {
		merged.OwnerID = d.OwnerID
	}
	return merged
}

// UnionContentIDs 合并两组内容 ID，保持首次出现的顺序并去重
func UnionContentIDs(a, b []ContentID) []ContentID {
	out := make([]ContentID, 0, len(a)+len(b))
	for _, list := range [][]ContentID{a, b} {
		for _, cid := range list {
			if cid.IsEmpty() || slices.Contains(out, cid) {
				continue
			}
			out = append(out, cid)
		}
	}
	return out
}
