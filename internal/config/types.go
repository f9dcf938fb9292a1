package config

import "path/filepath"

const (
	// DBFileExt 是加密数据库文件扩展名；import 只接受该扩展名。
	DBFileExt  = ".csdb"
	DBFileName = "credentials" + DBFileExt

	FileName = "credsafe.yaml"
)

// File 表示 credsafe.yaml 的配置结构。
// 约束：配置优先级为 CLI > ENV > Config。
type File struct {
	Store  StoreSettings `yaml:"store"`
	Output OutputConfig  `yaml:"output,omitempty"`
	MCP    MCPConfig     `yaml:"mcp,omitempty"`
}

// StoreSettings 由宿主配置系统持有：Safe 构造时读取，切换成功后写回。
type StoreSettings struct {
	Kind                      Kind   `yaml:"kind"`
	File                      string `yaml:"file,omitempty"` // 仅 encrypted_file 使用
	RememberPasswordByDefault bool   `yaml:"remember_password_by_default"`

	// Dir 是默认数据库所在目录（不序列化，由加载方填充）。
	Dir string `yaml:"-"`
}

// EffectiveKind 返回归一化后的后端类型。
func (s StoreSettings) EffectiveKind() Kind {
	return s.Kind.Normalize()
}

// DBPath 返回加密数据库路径：显式配置优先，否则 <Dir>/credentials.csdb。
func (s StoreSettings) DBPath() string {
	if s.File != "" {
		return s.File
	}
	return DefaultDBPath(s.Dir)
}

func DefaultDBPath(dir string) string {
	return filepath.Join(dir, DBFileName)
}

type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
}

type MCPConfig struct {
	Transport string        `yaml:"transport,omitempty"`
	HTTP      MCPHTTPConfig `yaml:"http,omitempty"`
}

type MCPHTTPConfig struct {
	Addr                string `yaml:"addr,omitempty"`
	AuthToken           string `yaml:"auth_token,omitempty"` // 支持 keyring:xxx 引用
	AllowPlaintextToken bool   `yaml:"allow_plaintext_token,omitempty"`
}

type Resolved struct {
	ConfigPath string
	Format     string
	File       File
}

type Options struct {
	// ConfigPath: 若非空，则只读取该文件（不存在报错）。
	ConfigPath string

	// CLI
	CLIFormat       string
	CLIFormatSet    bool
	CLIStoreKind    string
	CLIStoreKindSet bool

	// ENV（由调用方注入，便于测试）
	EnvFormat    string
	EnvStoreKind string

	// HomeDir 用于默认路径计算（为空则自动探测）。
	HomeDir string

	// WorkDir 用于默认路径（为空则使用进程当前工作目录）。
	WorkDir string
}

// Default 返回未找到配置文件时使用的配置。
func Default(dir string) File {
	return File{
		Store: StoreSettings{
			Kind:                      DefaultKind,
			RememberPasswordByDefault: true,
			Dir:                       dir,
		},
	}
}
