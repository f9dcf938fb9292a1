package app

import (
	"log/slog"
	"strconv"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/credstore"
	"github.com/zx06/credsafe/internal/log"
	"github.com/zx06/credsafe/internal/secret"
)

type SessionOptions struct {
	Resolved config.Resolved
	HomeDir  string
	Logger   *slog.Logger
	Notifier credstore.Notifier

	// KeychainFactories 为 nil 时使用默认（go-keyring → 99designs/keyring）。
	KeychainFactories []credstore.KeychainFactory
	// MasterKeys 为 nil 时主密码存系统 keyring，失败回退到 <db>.pwd。
	MasterKeys credstore.MasterKeyStorage
}

// Session 把配置、Safe 与 Configurator 绑定在一起，CLI 与 MCP 共用。
type Session struct {
	Safe         *credstore.Safe
	Configurator *credstore.Configurator

	file     config.File
	loaded   string
	savePath string
}

func OpenSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	masterKeys := opts.MasterKeys
	if masterKeys == nil {
		masterKeys = credstore.NewMasterKeyStorage(secret.Default())
	}
	safeOpts := []credstore.Option{
		credstore.WithLogger(logger),
		credstore.WithMasterKeyStorage(masterKeys),
	}
	if opts.Notifier != nil {
		safeOpts = append(safeOpts, credstore.WithNotifier(opts.Notifier))
	}
	if opts.KeychainFactories != nil {
		safeOpts = append(safeOpts, credstore.WithKeychainFactories(opts.KeychainFactories...))
	}
	safe := credstore.New(opts.Resolved.File.Store, safeOpts...)
	return &Session{
		Safe:         safe,
		Configurator: credstore.NewConfigurator(safe),
		file:         opts.Resolved.File,
		loaded:       opts.Resolved.ConfigPath,
		savePath:     config.SavePath(opts.Resolved.ConfigPath, opts.HomeDir),
	}
}

// SavePath 返回 Persist 写入的配置文件路径。
func (s *Session) SavePath() string { return s.savePath }

// Persist 保存加密数据库，并把当前 store 设置写回配置文件。
func (s *Session) Persist() error {
	if err := s.Safe.Save(); err != nil {
		return err
	}
	s.file.Store = s.Safe.Settings()
	if xe := config.Save(s.savePath, s.file); xe != nil {
		return xe
	}
	return nil
}

// Flush 只保存加密数据库，不改动配置文件。
func (s *Session) Flush() error {
	return s.Safe.Save()
}

type StoreStatus struct {
	Kind                      config.Kind `json:"kind" yaml:"kind"`
	Active                    config.Kind `json:"active,omitempty" yaml:"active,omitempty"`
	Materialized              bool        `json:"materialized" yaml:"materialized"`
	File                      string      `json:"file,omitempty" yaml:"file,omitempty"`
	MemoryOnly                bool        `json:"memory_only" yaml:"memory_only"`
	Entries                   *int        `json:"entries,omitempty" yaml:"entries,omitempty"`
	RememberPasswordByDefault bool        `json:"remember_password_by_default" yaml:"remember_password_by_default"`
	ConfigPath                string      `json:"config_path,omitempty" yaml:"config_path,omitempty"`
}

func (st StoreStatus) Columns() []string { return []string{"key", "value"} }

func (st StoreStatus) Rows() [][]string {
	rows := [][]string{
		{"kind", string(st.Kind)},
		{"active", string(st.Active)},
		{"materialized", strconv.FormatBool(st.Materialized)},
		{"file", st.File},
		{"memory_only", strconv.FormatBool(st.MemoryOnly)},
	}
	if st.Entries != nil {
		rows = append(rows, []string{"entries", strconv.Itoa(*st.Entries)})
	}
	return append(rows,
		[]string{"remember_password_by_default", strconv.FormatBool(st.RememberPasswordByDefault)},
		[]string{"config_path", st.ConfigPath},
	)
}

// Status 汇总当前 store；materialize 为 false 时不会触发后端构造。
func (s *Session) Status(materialize bool) StoreStatus {
	var current credstore.Store
	if materialize {
		current = s.Safe.Current()
	} else {
		current = s.Safe.CurrentIfComputed()
	}
	settings := s.Safe.Settings()
	st := StoreStatus{
		Kind:                      settings.EffectiveKind(),
		MemoryOnly:                s.Safe.IsMemoryOnly(),
		RememberPasswordByDefault: settings.RememberPasswordByDefault,
		ConfigPath:                s.loaded,
	}
	if settings.EffectiveKind() == config.KindEncryptedFile {
		st.File = settings.DBPath()
	}
	if current == nil {
		return st
	}
	st.Materialized = true
	st.Active = current.Kind()
	if pr, ok := current.(credstore.PathRebinder); ok {
		st.File = pr.Path()
	}
	if t, ok := current.(credstore.MemoryOnlyToggle); ok && t.IsMemoryOnly() {
		st.MemoryOnly = true
	}
	if l, ok := current.(credstore.EntryLister); ok {
		n := len(l.Entries())
		st.Entries = &n
	}
	return st
}

type CredentialStatus struct {
	Service            string `json:"service" yaml:"service"`
	UserName           string `json:"user,omitempty" yaml:"user,omitempty"`
	Found              bool   `json:"found" yaml:"found"`
	HasPassword        bool   `json:"has_password" yaml:"has_password"`
	StoredOnlyInMemory bool   `json:"stored_only_in_memory" yaml:"stored_only_in_memory"`
}

func (c CredentialStatus) Columns() []string {
	return []string{"service", "user", "found", "has_password", "memory_only"}
}

func (c CredentialStatus) Rows() [][]string {
	return [][]string{{
		c.Service, c.UserName,
		strconv.FormatBool(c.Found),
		strconv.FormatBool(c.HasPassword),
		strconv.FormatBool(c.StoredOnlyInMemory),
	}}
}

// CredentialStatus 查询凭据是否存在；不返回密码本身。
func (s *Session) CredentialStatus(service, user string) (CredentialStatus, error) {
	attrs := credstore.Attributes{Service: service, UserName: user}
	c, err := s.Safe.Get(attrs)
	if err != nil {
		return CredentialStatus{}, err
	}
	out := CredentialStatus{Service: service, UserName: user}
	if c.IsEmpty() {
		return out, nil
	}
	out.Found = true
	out.HasPassword = c.HasPassword()
	if out.UserName == "" {
		out.UserName = c.UserName
	}
	out.StoredOnlyInMemory = out.HasPassword && s.Safe.IsPasswordStoredOnlyInMemory(attrs, c)
	return out, nil
}
