// Package crypto 提供档案密钥的密码学工具
//
// 档案密钥固定为 ECDSA P-256：
//
//   - 公钥以 SubjectPublicKeyInfo (SPKI, DER) 对外发布
//   - 私钥以 PKCS#8 (DER) 持久化
//   - 签名为 64 字节定长 R || S，哈希为 SHA-256
//
// # 快速开始
//
//	priv, err := crypto.GenerateKey(rand.Reader)
//	sig, err := priv.Sign(data)
//	ok, err := priv.Public().Verify(data, sig)
//
//	der, err := priv.Marshal()
//	priv, err = crypto.UnmarshalPrivateKey(der)
package crypto
