package output

import (
	"strings"

	"github.com/zx06/credsafe/internal/errors"
)

type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func IsValid(f Format) bool {
	switch f {
	case FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return true
	default:
		return false
	}
}

// ParseFormat 校验格式字符串（大小写不敏感）；auto 原样返回，由调用方按 TTY 决定。
func ParseFormat(s string) (Format, *errors.XError) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !IsValid(f) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{
			"format":  s,
			"allowed": []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV},
		})
	}
	return f, nil
}
