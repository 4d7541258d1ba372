package types

import (
	"maps"
	"slices"
	"time"
)

// DIDPrefix 本地生成的去中心化标识符前缀
const DIDPrefix = "did:lairik:"

// ContactInfo 联系方式（可选）
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Profile 本机身份档案
//
// 每个安装实例只存在一份 Profile：创建一次，之后只做原地更新。
// CreatedAt 不可变，每次修改都会推进 UpdatedAt。
type Profile struct {
	ID           string            `json:"id"`
	DID          string            `json:"did"`
	DisplayName  string            `json:"name"`
	Contact      *ContactInfo      `json:"contact,omitempty"`
	Avatar       string            `json:"avatar,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	Location     string            `json:"location,omitempty"`
	Role         Role              `json:"role"`
	DocumentRefs []ContentID       `json:"documents"`
	Verified     bool              `json:"verified"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	PublicKey    []byte            `json:"public_key"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Clone 返回深拷贝
func (p Profile) Clone() Profile {
	c := p
	if p.Contact != nil {
		contact := *p.Contact
		c.Contact = &contact
	}
	c.DocumentRefs = slices.Clone(p.DocumentRefs)
	c.PublicKey = slices.Clone(p.PublicKey)
	c.Metadata = maps.Clone(p.Metadata)
	return c
}

// ProfileInput 创建档案时由调用方提供的字段
type ProfileInput struct {
	DisplayName string
	Contact     *ContactInfo
	Avatar      string
	Bio         string
	Location    string
	Role        Role
	Metadata    map[string]string
}

// ProfileUpdate 档案的部分更新，nil 字段保持不变
type ProfileUpdate struct {
	DisplayName *string
	Contact     *ContactInfo
	Avatar      *string
	Bio         *string
	Location    *string
	Role        *Role
	Metadata    map[string]string
}

// Apply 将部分更新合并到档案副本上
func (u ProfileUpdate) Apply(p Profile) Profile {
	out := p.Clone()
	if u.DisplayName != nil {
		out.DisplayName = *u.DisplayName
	}
	if u.Contact != nil {
		contact := *u.Contact
		out.Contact = &contact
	}
	if u.Avatar != nil {
		out.Avatar = *u.Avatar
	}
	if u.Bio != nil {
		out.Bio = *u.Bio
	}
	if u.Location != nil {
		out.Location = *u.Location
	}
	if u.Role != nil {
		out.Role = *u.Role
	}
	if u.Metadata != nil {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(u.Metadata))
		}
		maps.Copy(out.Metadata, u.Metadata)
	}
	return out
}
