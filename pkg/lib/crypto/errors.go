package crypto

import "errors"

// 密钥相关错误
var (
	// ErrNilPrivateKey 私钥为空
	ErrNilPrivateKey = errors.New("nil private key")

	// ErrInvalidPublicKey 公钥无效
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidPrivateKey 私钥无效
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// 签名相关错误
var (
	// ErrInvalidSignature 签名格式无效
	ErrInvalidSignature = errors.New("invalid signature")
)
