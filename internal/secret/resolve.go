package secret

import (
	"os"
	"strings"

	"github.com/zx06/credsafe/internal/errors"
)

const (
	keyringPrefix = "keyring:"
	envPrefix     = "env:"
)

// Options 控制 secret 解析行为。
type Options struct {
	AllowPlaintext bool       // 是否允许明文（默认 false）
	Keyring        KeyringAPI // 可注入的 keyring 实现（nil 则用默认）
	Service        string     // keyring service（空则为 DefaultService）

	// LookupEnv 可注入，便于测试（nil 则用 os.LookupEnv）。
	LookupEnv func(string) (string, bool)
}

// Resolve 解析 secret 引用（主密码、MCP token 等）：
//  1. keyring:xxx → 从 keyring 读取
//  2. env:NAME → 读取环境变量
//  3. 否则若为明文且允许明文 → 直接返回
//  4. 否则报错
//
// 交互式输入不在此处理（留给 cmd 层）。
func Resolve(raw string, opts Options) (string, *errors.XError) {
	switch {
	case strings.HasPrefix(raw, keyringPrefix):
		key := strings.TrimPrefix(raw, keyringPrefix)
		if key == "" {
			return "", errors.New(errors.CodeCfgInvalid, "empty keyring reference", nil)
		}
		kr := opts.Keyring
		if kr == nil {
			kr = defaultKeyring()
		}
		service := opts.Service
		if service == "" {
			service = DefaultService
		}
		val, err := kr.Get(service, key)
		if err != nil {
			return "", errors.Wrap(errors.CodeSecretNotFound, "failed to read secret from keyring", map[string]any{"key": key}, err)
		}
		return val, nil
	case strings.HasPrefix(raw, envPrefix):
		name := strings.TrimPrefix(raw, envPrefix)
		if name == "" {
			return "", errors.New(errors.CodeCfgInvalid, "empty env reference", nil)
		}
		lookup := opts.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		val, ok := lookup(name)
		if !ok {
			return "", errors.New(errors.CodeSecretNotFound, "environment variable not set", map[string]any{"env": name})
		}
		return val, nil
	}
	// 明文
	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "plaintext secret not allowed; use keyring:/env: reference or enable --allow-plaintext", nil)
}

// IsRef 判断值是否为 keyring:/env: 引用。
func IsRef(s string) bool {
	return strings.HasPrefix(s, keyringPrefix) || strings.HasPrefix(s, envPrefix)
}
