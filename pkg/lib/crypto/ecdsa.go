package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
)

// ECDSA 常量（P-256 曲线）
const (
	// ScalarSize 标量大小（32 字节）
	ScalarSize = 32
	// SignatureSize 签名大小（R || S，64 字节）
	SignatureSize = 2 * ScalarSize
)

// ============================================================================
//                              PublicKey
// ============================================================================

// PublicKey ECDSA 公钥（P-256 曲线）
type PublicKey struct {
	k *ecdsa.PublicKey
}

// Bytes 返回 SPKI DER 编码
func (k *PublicKey) Bytes() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.k)
}

// Equals 比较两个公钥是否相等
func (k *PublicKey) Equals(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return k.k.Equal(other.k)
}

// Verify 验证签名
//
// 签名格式为 64 字节：R (32 字节) + S (32 字节)。格式不符时返回 false 而不是错误。
func (k *PublicKey) Verify(data, sig []byte) (bool, error) {
	if len(sig) != SignatureSize {
		return false, nil
	}

	hash := sha256.Sum256(data)
	r := new(big.Int).SetBytes(sig[:ScalarSize])
	s := new(big.Int).SetBytes(sig[ScalarSize:])

	return ecdsa.Verify(k.k, hash[:], r, s), nil
}

// ============================================================================
//                              PrivateKey
// ============================================================================

// PrivateKey ECDSA 私钥（P-256 曲线）
type PrivateKey struct {
	k *ecdsa.PrivateKey
}

// Public 返回对应的公钥
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{k: &k.k.PublicKey}
}

// Marshal 返回 PKCS#8 DER 编码
func (k *PrivateKey) Marshal() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.k)
}

// Sign 签名数据
//
// 返回 64 字节签名：R (32 字节) + S (32 字节)
func (k *PrivateKey) Sign(data []byte) ([]byte, error) {
	if k == nil || k.k == nil {
		return nil, ErrNilPrivateKey
	}

	hash := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, k.k, hash[:])
	if err != nil {
		return nil, err
	}

	sig := make([]byte, SignatureSize)
	copy(sig[:ScalarSize], paddedBytes(r, ScalarSize))
	copy(sig[ScalarSize:], paddedBytes(s, ScalarSize))
	return sig, nil
}

// ============================================================================
//                              工厂函数
// ============================================================================

// GenerateKey 生成新的 P-256 密钥对
func GenerateKey(src io.Reader) (*PrivateKey, error) {
	if src == nil {
		src = rand.Reader
	}
	priv, err := ecdsa.GenerateKey(elliptic.P256(), src)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{k: priv}, nil
}

// UnmarshalPublicKey 从 SPKI DER 解析公钥
func UnmarshalPublicKey(data []byte) (*PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	ek, ok := key.(*ecdsa.PublicKey)
	if !ok || ek.Curve != elliptic.P256() {
		return nil, ErrInvalidPublicKey
	}
	return &PublicKey{k: ek}, nil
}

// UnmarshalPrivateKey 解析私钥
//
// 支持 PKCS#8 和 SEC1 格式
func UnmarshalPrivateKey(data []byte) (*PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(data); err == nil {
		if ek, ok := key.(*ecdsa.PrivateKey); ok && ek.Curve == elliptic.P256() {
			return &PrivateKey{k: ek}, nil
		}
		return nil, ErrInvalidPrivateKey
	}

	if key, err := x509.ParseECPrivateKey(data); err == nil && key.Curve == elliptic.P256() {
		return &PrivateKey{k: key}, nil
	}

	return nil, ErrInvalidPrivateKey
}

// paddedBytes 返回固定长度的大端字节
func paddedBytes(n *big.Int, length int) []byte {
	b := n.Bytes()
	if len(b) >= length {
		return b[len(b)-length:]
	}
	padded := make([]byte, length)
	copy(padded[length-len(b):], b)
	return padded
}
