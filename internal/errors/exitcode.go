package errors

// ExitCode 是进程退出码（稳定契约）。
type ExitCode int

const (
	ExitOK ExitCode = 0

	// 2: 参数/配置错误
	ExitConfig ExitCode = 2

	// 3: 主密码错误（可重试或 clear 重置）
	ExitMasterPassword ExitCode = 3

	// 4: 存储错误（文件 I/O、keychain 不可用）
	ExitStorage ExitCode = 4

	// 10: 内部错误
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgNotFound, CodeCfgInvalid, CodeSecretNotFound, CodeConfiguration:
		return ExitConfig
	case CodeMasterPasswordWrong:
		return ExitMasterPassword
	case CodeStorageFailed, CodeKeychainUnavailable:
		return ExitStorage
	case CodeInternal:
		fallthrough
	default:
		return ExitInternal
	}
}
