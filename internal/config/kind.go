package config

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zx06/credsafe/internal/errors"
)

// Kind 表示凭据存储后端类型。
type Kind string

const (
	KindKeychain      Kind = "keychain"
	KindEncryptedFile Kind = "encrypted_file"
	KindMemoryOnly    Kind = "memory_only"

	// Deprecated: 旧配置中可能存在，只用于反序列化；读到时等同 KindMemoryOnly，写出时也会改写为 memory_only。
	KindDoNotStore Kind = "do_not_store"
)

// DefaultKind 是配置缺省时使用的后端。
const DefaultKind = KindKeychain

// ParseKind 解析用户输入（CLI/ENV）；不接受已废弃的 do_not_store。
func ParseKind(s string) (Kind, *errors.XError) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindKeychain, KindEncryptedFile, KindMemoryOnly:
		return k, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "invalid store kind", map[string]any{
		"kind":    s,
		"allowed": []Kind{KindKeychain, KindEncryptedFile, KindMemoryOnly},
	})
}

// Normalize 把旧值与空值映射到当前有效值。
func (k Kind) Normalize() Kind {
	switch k {
	case KindDoNotStore:
		return KindMemoryOnly
	case "":
		return DefaultKind
	}
	return k
}

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "", KindKeychain, KindEncryptedFile, KindMemoryOnly, KindDoNotStore:
		*k = v
		return nil
	}
	return errors.New(errors.CodeCfgInvalid, "invalid store kind", map[string]any{"kind": s, "line": node.Line})
}

func (k Kind) MarshalYAML() (any, error) {
	if k == KindDoNotStore {
		return string(KindMemoryOnly), nil
	}
	return string(k), nil
}
