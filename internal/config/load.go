package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/zx06/credsafe/internal/errors"
)

// DefaultDir 返回 $HOME/.config/credsafe。
func DefaultDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", "credsafe")
}

func defaultConfigPaths(workDir, homeDir string) []string {
	paths := make([]string, 0, 2)
	if workDir != "" {
		paths = append(paths, filepath.Join(workDir, FileName))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(DefaultDir(homeDir), FileName))
	}
	return paths
}

func readFile(path, dir string) (File, *errors.XError) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.New(errors.CodeCfgNotFound, "config file not found", map[string]any{"path": path})
		}
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "failed to read config file", map[string]any{"path": path}, err)
	}
	// 预填默认值：yaml 对缺失字段保留原值
	f := Default(dir)
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "invalid config file", map[string]any{"path": path}, err)
	}
	f.Store.Dir = dir
	return f, nil
}

func normalizeOptions(opts Options) (workDir string, o Options) {
	workDir = opts.WorkDir
	if workDir == "" {
		wd, _ := os.Getwd()
		workDir = wd
	}
	if opts.HomeDir == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = hd
		}
	}
	return workDir, opts
}

func storeDir(homeDir, cfgPath string) string {
	if homeDir != "" {
		return DefaultDir(homeDir)
	}
	if cfgPath != "" {
		return filepath.Dir(cfgPath)
	}
	return "."
}

// LoadConfig 加载配置文件，返回完整配置和配置文件路径（未找到时路径为空）。
func LoadConfig(opts Options) (File, string, *errors.XError) {
	workDir, opts := normalizeOptions(opts)

	if opts.ConfigPath != "" {
		abs := opts.ConfigPath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, abs)
		}
		f, xe := readFile(abs, storeDir(opts.HomeDir, abs))
		if xe != nil {
			return File{}, "", xe
		}
		return f, abs, nil
	}

	dir := storeDir(opts.HomeDir, "")
	for _, p := range defaultConfigPaths(workDir, opts.HomeDir) {
		f, xe := readFile(p, dir)
		if xe != nil {
			if xe.Code == errors.CodeCfgNotFound {
				continue
			}
			return File{}, "", xe
		}
		return f, p, nil
	}

	return Default(dir), "", nil
}

// SavePath 返回写回配置的位置：已加载的路径优先，否则为 home 下的默认路径。
func SavePath(loadedPath, homeDir string) string {
	if loadedPath != "" {
		return loadedPath
	}
	if homeDir == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			homeDir = hd
		}
	}
	return filepath.Join(DefaultDir(homeDir), FileName)
}

// Save 原子写回配置文件（先写临时文件再 rename）。
func Save(path string, f File) *errors.XError {
	if path == "" {
		return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode config", nil, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to create config dir", map[string]any{"path": path}, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write config file", map[string]any{"path": path}, err)
	}
	return nil
}
