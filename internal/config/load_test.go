package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_NoConfig(t *testing.T) {
	tmp := t.TempDir()
	cfg, path, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if path != "" {
		t.Fatalf("expected empty path, got %q", path)
	}
	if cfg.Store.EffectiveKind() != KindKeychain {
		t.Fatalf("expected default kind keychain, got %q", cfg.Store.Kind)
	}
	if !cfg.Store.RememberPasswordByDefault {
		t.Fatal("expected remember_password_by_default=true by default")
	}
	want := filepath.Join(tmp, ".config", "credsafe", DBFileName)
	if cfg.Store.DBPath() != want {
		t.Fatalf("DBPath=%q want %q", cfg.Store.DBPath(), want)
	}
}

func TestLoadConfig_ExplicitConfigMissing(t *testing.T) {
	tmp := t.TempDir()
	_, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: "no_such.yaml"})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != "CREDSAFE_CFG_NOT_FOUND" {
		t.Fatalf("expected CREDSAFE_CFG_NOT_FOUND, got %s", xe.Code)
	}
}

func TestLoadConfig_WorkDirConfig(t *testing.T) {
	tmp := t.TempDir()
	cfg := []byte(`store:
  kind: encrypted_file
  file: /var/lib/credsafe/team.csdb
  remember_password_by_default: false
`)
	path := filepath.Join(tmp, FileName)
	if err := os.WriteFile(path, cfg, 0o600); err != nil {
		t.Fatal(err)
	}

	file, cfgPath, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if cfgPath != path {
		t.Fatalf("expected path %q, got %q", path, cfgPath)
	}
	if file.Store.Kind != KindEncryptedFile {
		t.Errorf("expected kind=encrypted_file, got %q", file.Store.Kind)
	}
	if file.Store.DBPath() != "/var/lib/credsafe/team.csdb" {
		t.Errorf("unexpected db path %q", file.Store.DBPath())
	}
	if file.Store.RememberPasswordByDefault {
		t.Error("expected remember_password_by_default=false")
	}
}

func TestLoadConfig_HomeDirConfig(t *testing.T) {
	workDir := t.TempDir()
	homeDir := t.TempDir()

	cfgDir := DefaultDir(homeDir)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, FileName)
	if err := os.WriteFile(path, []byte("store:\n  kind: memory_only\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	file, cfgPath, xe := LoadConfig(Options{WorkDir: workDir, HomeDir: homeDir})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if cfgPath != path {
		t.Fatalf("expected path %q, got %q", path, cfgPath)
	}
	if file.Store.Kind != KindMemoryOnly {
		t.Fatalf("expected memory_only, got %q", file.Store.Kind)
	}
}

func TestLoadConfig_WorkDirTakesPrecedence(t *testing.T) {
	workDir := t.TempDir()
	homeDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(workDir, FileName), []byte("store:\n  kind: memory_only\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgDir := DefaultDir(homeDir)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, FileName), []byte("store:\n  kind: keychain\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	file, cfgPath, xe := LoadConfig(Options{WorkDir: workDir, HomeDir: homeDir})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if cfgPath != filepath.Join(workDir, FileName) {
		t.Fatalf("expected work dir config, got %q", cfgPath)
	}
	if file.Store.Kind != KindMemoryOnly {
		t.Fatalf("expected work dir kind, got %q", file.Store.Kind)
	}
	// 默认数据库目录始终在 home 下
	if file.Store.Dir != cfgDir {
		t.Fatalf("store dir=%q want %q", file.Store.Dir, cfgDir)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, FileName)
	if err := os.WriteFile(path, []byte(`invalid: yaml: syntax: [`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if xe.Code != "CREDSAFE_CFG_INVALID" {
		t.Fatalf("expected CREDSAFE_CFG_INVALID, got %s", xe.Code)
	}
}

func TestLoadConfig_UnknownKind(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, FileName)
	if err := os.WriteFile(path, []byte("store:\n  kind: floppy\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe == nil || xe.Code != "CREDSAFE_CFG_INVALID" {
		t.Fatalf("expected CREDSAFE_CFG_INVALID, got %v", xe)
	}
}

func TestLoadConfig_LegacyDoNotStore(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, FileName)
	if err := os.WriteFile(path, []byte("store:\n  kind: DO_NOT_STORE\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	file, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if file.Store.Kind != KindDoNotStore {
		t.Fatalf("expected raw kind do_not_store, got %q", file.Store.Kind)
	}
	if file.Store.EffectiveKind() != KindMemoryOnly {
		t.Fatalf("expected effective memory_only, got %q", file.Store.EffectiveKind())
	}
}

func TestSave_RoundTripAndLegacyRewrite(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", FileName)

	f := Default(tmp)
	f.Store.Kind = KindDoNotStore
	f.Output.Format = "json"
	if xe := Save(path, f); xe != nil {
		t.Fatalf("Save failed: %v", xe)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "do_not_store") {
		t.Fatalf("legacy kind must not be written, got:\n%s", b)
	}
	if !strings.Contains(string(b), "kind: memory_only") {
		t.Fatalf("expected memory_only in saved file, got:\n%s", b)
	}

	got, _, xe := LoadConfig(Options{ConfigPath: path, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("reload failed: %v", xe)
	}
	if got.Store.Kind != KindMemoryOnly || got.Output.Format != "json" {
		t.Fatalf("unexpected reload: %+v", got)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	if xe := Save("", Default("")); xe == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSavePath(t *testing.T) {
	if got := SavePath("/etc/credsafe.yaml", "/home/u"); got != "/etc/credsafe.yaml" {
		t.Fatalf("got %q", got)
	}
	want := filepath.Join("/home/u", ".config", "credsafe", FileName)
	if got := SavePath("", "/home/u"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
