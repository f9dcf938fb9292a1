package config

import (
	"github.com/zx06/credsafe/internal/errors"
)

// Resolve 合并 config/env/cli：CLI > ENV > Config。
func Resolve(opts Options) (Resolved, *errors.XError) {
	// 1) 读取配置文件（如有）
	cfg, cfgPath, xe := LoadConfig(opts)
	if xe != nil {
		return Resolved{}, xe
	}

	// 2) store kind：--store > CREDSAFE_STORE_KIND > store.kind
	kindStr := opts.EnvStoreKind
	if opts.CLIStoreKindSet {
		kindStr = opts.CLIStoreKind
	}
	if kindStr != "" {
		kind, xe := ParseKind(kindStr)
		if xe != nil {
			return Resolved{}, xe
		}
		cfg.Store.Kind = kind
	}

	// 3) 合并 format：--format > CREDSAFE_FORMAT > output.format > auto
	format := "auto"
	if cfg.Output.Format != "" {
		format = cfg.Output.Format
	}
	if opts.EnvFormat != "" {
		format = opts.EnvFormat
	}
	if opts.CLIFormatSet {
		format = opts.CLIFormat
	}

	return Resolved{ConfigPath: cfgPath, Format: format, File: cfg}, nil
}
