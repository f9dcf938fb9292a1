package credstore

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/filedb"
	"github.com/zx06/credsafe/internal/metrics"
)

// Target describes the desired backend.
type Target struct {
	Kind config.Kind
	// Path is the database file for KindEncryptedFile; empty keeps the
	// configured one.
	Path string
	// MigrateFileStore moves the entries of an active encrypted file store
	// into the keychain when switching to KindKeychain.
	MigrateFileStore bool
}

// ImportRequest describes an external database to adopt.
type ImportRequest struct {
	Source string
	// Destination defaults to the configured database path.
	Destination    string
	MasterPassword []byte
}

// Configurator applies backend transitions to a Safe. It holds a master
// password collected before the transition that needs it.
type Configurator struct {
	safe   *Safe
	logger *slog.Logger

	mu      sync.Mutex
	pending *sealedSecret
}

func NewConfigurator(safe *Safe) *Configurator {
	return &Configurator{safe: safe, logger: safe.logger}
}

func (c *Configurator) Safe() *Safe { return c.safe }

func (c *Configurator) targetPath(p string) string {
	if strings.TrimSpace(p) == "" {
		p = c.safe.Settings().DBPath()
	}
	return cleanPath(p)
}

// IsModified reports whether t differs from the current settings.
func (c *Configurator) IsModified(t Target) bool {
	cur := c.safe.Settings()
	kind := t.Kind.Normalize()
	if kind != cur.EffectiveKind() {
		return true
	}
	return kind == config.KindEncryptedFile && c.targetPath(t.Path) != cleanPath(cur.DBPath())
}

// Apply switches the Safe to t. Any pending master password is dropped
// afterwards whether or not the switch succeeded.
func (c *Configurator) Apply(t Target) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.dropPending()

	kind := t.Kind.Normalize()
	if !c.IsModified(t) {
		metrics.RecordTransition(string(kind), "noop")
		return nil
	}
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordTransition(string(kind), result)
	}()

	path := c.targetPath(t.Path)
	switch kind {
	case config.KindMemoryOnly:
		c.toMemoryOnly()
		c.safe.commitSettings(kind, "")
	case config.KindKeychain:
		if err := c.toKeychain(t.MigrateFileStore); err != nil {
			return err
		}
		c.safe.commitSettings(kind, "")
	case config.KindEncryptedFile:
		if err := c.toEncryptedFile(path); err != nil {
			return err
		}
		c.safe.commitSettings(kind, path)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid store kind", map[string]any{"kind": string(t.Kind)})
	}
	c.logger.Info("credential store changed", "kind", kind, "path", path)
	return nil
}

func (c *Configurator) toMemoryOnly() {
	if fb, ok := asFileBacked(c.safe.CurrentIfComputed()); ok {
		fb.SetMemoryOnly(true)
		if err := fb.DeleteFileStorage(); err != nil {
			c.logger.Error("failed to delete encrypted database", "path", fb.Path(), "err", err)
		}
		return
	}
	c.safe.setCurrent(NewMemoryStore())
}

func (c *Configurator) toKeychain(migrate bool) error {
	prev := c.safe.CurrentIfComputed()
	var from Store
	if fb, ok := asFileBacked(prev); ok && migrate && !fb.IsMemoryOnly() {
		from = fb
	}
	st, err := c.safe.createPersistentStore(c.safe.Settings().DBPath(), prev, from)
	if err != nil {
		return c.configurationError(c.safe.Settings().DBPath(), err)
	}
	c.safe.setCurrent(st)
	return nil
}

func (c *Configurator) toEncryptedFile(path string) error {
	fb, ok := asFileBacked(c.safe.CurrentIfComputed())
	// a memory-only store lost its file for good; an existing database at
	// the new path is opened, not overwritten
	if ok && !fb.IsMemoryOnly() && c.pending == nil && (cleanPath(fb.Path()) == path || !filedb.Exists(path)) {
		fb.SetPath(path)
		return nil
	}
	password, err := c.pending.Open()
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "cannot read pending master password", nil, err)
	}
	defer wipe(password)
	st, err := c.safe.openFileStore(path, password)
	if err != nil {
		return c.configurationError(path, err)
	}
	c.safe.setCurrent(st)
	return nil
}

func (c *Configurator) configurationError(path string, err error) error {
	details := map[string]any{"path": path}
	if errors.Is(err, filedb.ErrWrongMasterPassword) {
		details["hint"] = "set the right master password, or run `credsafe clear --yes` to reset the database"
		return errors.Wrap(errors.CodeMasterPasswordWrong,
			"master password for encrypted database is not correct", details, err)
	}
	return errors.Wrap(errors.CodeConfiguration, "cannot open encrypted database", details, err)
}

// SetMasterPassword re-keys the active encrypted file store, or keeps the
// password for the next transition when there is none.
func (c *Configurator) SetMasterPassword(password []byte) error {
	if len(password) == 0 {
		return errors.New(errors.CodeCfgInvalid, "master password must not be empty", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if fb, ok := asFileBacked(c.safe.CurrentIfComputed()); ok && !fb.IsMemoryOnly() {
		if err := fb.SetMasterPassword(password); err != nil {
			return errors.Wrap(errors.CodeStorageFailed, "cannot change master password", nil, err)
		}
		c.pending = nil
		return nil
	}
	c.pending = sealSecret(password)
	return nil
}

func (c *Configurator) HasPendingMasterPassword() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Configurator) dropPending() {
	c.pending = nil
}

// Import validates req.Source with its master password, copies it over the
// destination and activates it. A wrong password leaves everything as is.
// Any pending master password is dropped afterwards.
func (c *Configurator) Import(req ImportRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.dropPending()

	src := cleanPath(req.Source)
	if !strings.EqualFold(filepath.Ext(src), config.DBFileExt) {
		return errors.New(errors.CodeCfgInvalid, "import source must be a "+config.DBFileExt+" file", map[string]any{"path": req.Source})
	}
	dst := c.targetPath(req.Destination)
	if samePath(src, dst) {
		c.logger.Debug("import source is the active database, nothing to do", "path", src)
		return nil
	}
	if len(req.MasterPassword) == 0 {
		return errors.New(errors.CodeCfgInvalid, "master password is required to import", map[string]any{"path": src})
	}

	db, err := filedb.Load(src, req.MasterPassword)
	if err != nil {
		if errors.Is(err, filedb.ErrWrongMasterPassword) {
			c.logger.Debug("import: wrong master password", "path", src)
			return errors.Wrap(errors.CodeMasterPasswordWrong, "master password is not correct", map[string]any{"path": src}, err)
		}
		c.logger.Error("import failed", "path", src, "err", err)
		return errors.Wrap(errors.CodeStorageFailed, "cannot import encrypted database", map[string]any{"path": src}, err)
	}

	if err := copyFile(src, dst); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "cannot copy encrypted database", map[string]any{"from": src, "to": dst}, err)
	}
	st, err := OpenFileStore(FileStoreOptions{
		Path:           dst,
		MasterPassword: req.MasterPassword,
		Preloaded:      db,
		MasterKeys:     c.safe.masterKeys,
	})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "cannot open imported database", map[string]any{"path": dst}, err)
	}
	if err := st.Save(); err != nil {
		c.logger.Warn("cannot store master key of imported database", "path", dst, "err", err)
	}
	c.safe.setCurrent(st)
	c.safe.commitSettings(config.KindEncryptedFile, dst)
	metrics.RecordTransition(string(config.KindEncryptedFile), "import")
	return nil
}

// Clear empties the database at path (the configured one when empty). If it
// cannot be opened the file is deleted instead. A missing file is left alone.
func (c *Configurator) Clear(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path = c.targetPath(path)
	if fb, ok := asFileBacked(c.safe.CurrentIfComputed()); ok && cleanPath(fb.Path()) == path {
		fb.Clear()
		err := fb.Save()
		if err == nil {
			return nil
		}
		c.logger.Error("failed to save cleared database, deleting it", "path", path, "err", err)
		return c.deleteDatabase(path)
	}

	if err := c.clearFile(path); err != nil {
		c.logger.Error("failed to clear encrypted database, deleting it", "path", path, "err", err)
		return c.deleteDatabase(path)
	}
	return nil
}

func (c *Configurator) clearFile(path string) error {
	if !filedb.Exists(path) {
		c.logger.Debug("no encrypted database to clear", "path", path)
		return nil
	}
	password, err := c.pending.Open()
	if err != nil {
		return err
	}
	defer wipe(password)
	st, err := c.safe.openFileStore(path, password)
	if err != nil {
		return err
	}
	st.Clear()
	return st.Save()
}

func (c *Configurator) deleteDatabase(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.CodeStorageFailed, "cannot delete encrypted database", map[string]any{"path": path}, err)
	}
	if err := c.safe.masterKeys.Delete(path); err != nil {
		c.logger.Warn("failed to delete stored master key", "path", path, "err", err)
	}
	return nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	return atomic.WriteFile(dst, bytes.NewReader(data))
}
