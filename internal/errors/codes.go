package errors

// Code 是稳定错误码（字符串），供 AI/agent 与程序判断。
// 只增不改、不复用旧含义。
type Code string

const (
	// Config / args
	CodeCfgNotFound    Code = "CREDSAFE_CFG_NOT_FOUND"
	CodeCfgInvalid     Code = "CREDSAFE_CFG_INVALID"
	CodeSecretNotFound Code = "CREDSAFE_SECRET_NOT_FOUND"

	// Store
	CodeMasterPasswordWrong Code = "CREDSAFE_MASTER_PASSWORD_WRONG"
	CodeStorageFailed       Code = "CREDSAFE_STORAGE_FAILED"
	CodeKeychainUnavailable Code = "CREDSAFE_KEYCHAIN_UNAVAILABLE"

	// 存储切换无法应用时返回给配置层，message 带有可操作的提示。
	CodeConfiguration Code = "CREDSAFE_CONFIGURATION"

	// Internal
	CodeInternal Code = "CREDSAFE_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgNotFound,
		CodeCfgInvalid,
		CodeSecretNotFound,
		CodeMasterPasswordWrong,
		CodeStorageFailed,
		CodeKeychainUnavailable,
		CodeConfiguration,
		CodeInternal,
	}
}
