package spec

import "github.com/zx06/credsafe/internal/errors"

type FlagSpec struct {
	Name        string `json:"name" yaml:"name"`
	Shorthand   string `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Env         string `json:"env,omitempty" yaml:"env,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type ArgSpec struct {
	Name        string `json:"name" yaml:"name"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type CommandSpec struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Args        []ArgSpec  `json:"args,omitempty" yaml:"args,omitempty"`
	Flags       []FlagSpec `json:"flags,omitempty" yaml:"flags,omitempty"`
	// Destructive 为 true 时命令需要 --yes 确认。
	Destructive bool `json:"destructive,omitempty" yaml:"destructive,omitempty"`
}

// ExitCodeSpec 描述错误码到进程退出码的映射。
type ExitCodeSpec struct {
	Code     errors.Code `json:"code" yaml:"code"`
	ExitCode int         `json:"exit_code" yaml:"exit_code"`
}

type Spec struct {
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	StoreKinds    []string       `json:"store_kinds" yaml:"store_kinds"`
	Commands      []CommandSpec  `json:"commands" yaml:"commands"`
	ErrorCodes    []ExitCodeSpec `json:"error_codes" yaml:"error_codes"`
}

// Command 按名称查找命令（如 "store use"）。
func (s Spec) Command(name string) (CommandSpec, bool) {
	for _, c := range s.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
