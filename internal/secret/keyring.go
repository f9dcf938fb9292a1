package secret

import stderrors "errors"

// ErrNotFound 表示 keyring 中没有该条目；各实现需把底层库的 not-found 映射到此值。
var ErrNotFound = stderrors.New("secret not found in keyring")

// KeyringAPI 是对 OS keyring 的最小抽象，便于测试与跨平台。
// service 对应 keyring 的 service name，account 对应 user/account。
type KeyringAPI interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// DefaultService 是 credsafe 在 keyring 中使用的 service name。
const DefaultService = "credsafe"

// 默认 keyring 实现（使用 zalando/go-keyring）
// 本文件仅定义接口；实现见 keyring_*.go（按平台编译）。
func defaultKeyring() KeyringAPI {
	return &osKeyring{}
}

// Default 返回系统 keyring。
func Default() KeyringAPI {
	return defaultKeyring()
}

type osKeyring struct{}

// Get/Set/Delete 见 keyring_default.go / keyring_windows.go。
