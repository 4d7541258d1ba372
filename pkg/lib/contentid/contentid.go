// Package contentid 生成内容寻址的文档 ID
//
// ContentID = base58(BLAKE3-256(content))。相同字节必然得到相同 ID，
// 不同实现之间可以直接比对。
package contentid

import (
	"errors"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// DigestSize 摘要大小（32 字节）
const DigestSize = 32

// ErrInvalidContentID 无法解析的内容 ID
var ErrInvalidContentID = errors.New("invalid content ID")

// Sum 计算内容 ID
func Sum(data []byte) types.ContentID {
	digest := blake3.Sum256(data)
	return types.ContentID(base58.Encode(digest[:]))
}

// FromReader 以流方式计算内容 ID
func FromReader(r io.Reader) (types.ContentID, error) {
	h := blake3.New(DigestSize, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return types.ContentID(base58.Encode(h.Sum(nil))), nil
}

// Decode 解析内容 ID，返回摘要
func Decode(cid types.ContentID) ([]byte, error) {
	if cid.IsEmpty() {
		return nil, types.ErrEmptyContentID
	}
	b, err := base58.Decode(cid.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContentID, err)
	}
	if len(b) != DigestSize {
		return nil, fmt.Errorf("%w: digest length %d", ErrInvalidContentID, len(b))
	}
	return b, nil
}

// Valid 是否为本包生成的内容 ID 格式
func Valid(cid types.ContentID) bool {
	_, err := Decode(cid)
	return err == nil
}

// Verify 内容是否与 ID 匹配
func Verify(cid types.ContentID, data []byte) bool {
	return Sum(data) == cid
}
