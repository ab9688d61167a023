package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Digest 是凭证的十六进制 SHA3-512 摘要，也是 keys 目录中文件的内容。
type Digest string

// Hash 对原始凭证字节计算 SHA3-512。
func Hash(secret string) Digest {
	sum := sha3.Sum512([]byte(secret))
	return Digest(hex.EncodeToString(sum[:]))
}

// Matches 以常量时间比较 secret 的摘要与已存摘要。
func (d Digest) Matches(secret string) bool {
	candidate := Hash(secret)
	return subtle.ConstantTimeCompare([]byte(d), []byte(candidate)) == 1
}

// ParseBasic 从 Authorization 头中取出 Basic 凭证并 base64 解码。
// 头缺失、格式不符或解码失败都视为“未提供凭证”，不返回错误。
// 空值（"Basic " 或解码后为空串）同样视为未提供，不会被当作空口令绑定。
func ParseBasic(header string) Credential {
	const prefix = "Basic "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Credential{}
	}
	encoded := strings.TrimSpace(header[len(prefix):])
	if encoded == "" {
		return Credential{}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Credential{}
	}
	return Credential{Present: true, Secret: string(raw)}
}
