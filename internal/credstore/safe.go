package credstore

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/filedb"
	"github.com/zx06/credsafe/internal/log"
	"github.com/zx06/credsafe/internal/metrics"
)

const notifyTitle = "Cannot access credential storage"

// Safe routes reads and writes to the active backend and to a lazily created
// in-memory overlay that holds memory-only passwords.
type Safe struct {
	logger     *slog.Logger
	notifier   Notifier
	factories  []KeychainFactory
	masterKeys MasterKeyStorage

	// mu serializes settings access and backend construction.
	mu       sync.Mutex
	settings config.StoreSettings

	current atomic.Pointer[storeSlot]
	memory  atomic.Pointer[MemoryStore]
}

type storeSlot struct {
	store Store
}

type Option func(*Safe)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Safe) { s.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(s *Safe) { s.notifier = n }
}

// WithKeychainFactories replaces the keychain factories tried in order.
// Passing none forces the encrypted-file fallback.
func WithKeychainFactories(factories ...KeychainFactory) Option {
	return func(s *Safe) { s.factories = factories }
}

func WithMasterKeyStorage(m MasterKeyStorage) Option {
	return func(s *Safe) { s.masterKeys = m }
}

// WithStore installs an already constructed backend; settings are not
// consulted to build one.
func WithStore(st Store) Option {
	return func(s *Safe) { s.current.Store(&storeSlot{store: st}) }
}

// New creates a Safe. No backend is built until first use.
func New(settings config.StoreSettings, opts ...Option) *Safe {
	s := &Safe{
		settings:  settings,
		factories: DefaultKeychainFactories(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	if s.notifier == nil {
		s.notifier = LogNotifier(s.logger)
	}
	if s.masterKeys == nil {
		s.masterKeys = NewMasterKeyStorage(nil)
	}
	return s
}

// Current returns the active backend, building it on first call. It never
// fails: problems opening the configured backend downgrade to memory.
func (s *Safe) Current() Store {
	if slot := s.current.Load(); slot != nil {
		return slot.store
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot := s.current.Load(); slot != nil {
		return slot.store
	}
	st := s.computeStore()
	// a transition may have installed a store while this one was built
	if !s.current.CompareAndSwap(nil, &storeSlot{store: st}) {
		return s.current.Load().store
	}
	return st
}

// CurrentIfComputed returns the active backend or nil if none was built yet.
func (s *Safe) CurrentIfComputed() Store {
	if slot := s.current.Load(); slot != nil {
		return slot.store
	}
	return nil
}

func (s *Safe) setCurrent(st Store) {
	s.current.Store(&storeSlot{store: st})
}

// computeStore must be called with mu held.
func (s *Safe) computeStore() Store {
	path := s.settings.DBPath()
	var (
		st  Store
		err error
	)
	switch kind := s.settings.EffectiveKind(); kind {
	case config.KindMemoryOnly:
		return NewMemoryStore()
	case config.KindKeychain:
		st, err = s.createPersistentStore(path, nil, nil)
	case config.KindEncryptedFile:
		st, err = s.openFileStore(path, nil)
	default:
		err = fmt.Errorf("unknown store kind %q", kind)
	}
	if err == nil {
		return st
	}

	if errors.Is(err, filedb.ErrWrongMasterPassword) {
		s.logger.Warn("master password for encrypted database is not correct", "path", path, "err", err)
		metrics.RecordFallback("wrong_master_password")
		s.notifier.Notify(notifyTitle, fmt.Sprintf(
			"Master password for encrypted database %s is not correct. In-memory password storage will be used.", path))
	} else {
		s.logger.Error("cannot open credential storage", "path", path, "err", err)
		metrics.RecordFallback("internal_error")
		s.notifier.Notify(notifyTitle, fmt.Sprintf(
			"Internal error during opening of encrypted database %s. In-memory password storage will be used.", path))
	}
	s.settings.Kind = config.KindMemoryOnly
	return NewMemoryStore()
}

func (s *Safe) openFileStore(path string, masterPassword []byte) (*FileStore, error) {
	return OpenFileStore(FileStoreOptions{
		Path:           path,
		MasterPassword: masterPassword,
		MasterKeys:     s.masterKeys,
	})
}

// createPersistentStore returns the first available keychain backend. When
// migrateFrom is set its entries are copied over and it is emptied. With no
// keychain, existing is reused if it is a persistent encrypted file store,
// otherwise the database at path is opened.
func (s *Safe) createPersistentStore(path string, existing, migrateFrom Store) (Store, error) {
	for _, f := range s.factories {
		st, err := f.Create()
		if err != nil {
			s.logger.Debug("keychain unavailable", "keychain", f.Name(), "err", err)
			continue
		}
		if migrateFrom != nil {
			s.migrate(migrateFrom, st)
		}
		return st, nil
	}

	s.logger.Warn("no keychain available, using encrypted file", "path", path)
	if fb, ok := asFileBacked(existing); ok && !fb.IsMemoryOnly() {
		return fb, nil
	}
	return s.openFileStore(path, nil)
}

func (s *Safe) migrate(from, to Store) {
	copier, ok := from.(Copier)
	if !ok {
		return
	}
	if err := copier.CopyTo(to); err != nil {
		s.logger.Error("failed to copy credentials to keychain", "err", err)
		return
	}
	if c, ok := from.(Clearer); ok {
		c.Clear()
	}
	if sv, ok := from.(Saver); ok {
		if err := sv.Save(); err != nil {
			s.logger.Error("failed to save emptied encrypted database", "err", err)
		}
	}
}

// overlay returns the memory overlay, creating it on first use.
func (s *Safe) overlay() *MemoryStore {
	if m := s.memory.Load(); m != nil {
		return m
	}
	s.memory.CompareAndSwap(nil, NewMemoryStore())
	return s.memory.Load()
}

// Settings returns a copy of the current store settings.
func (s *Safe) Settings() config.StoreSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Safe) commitSettings(kind config.Kind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Kind = kind
	if path != "" {
		s.settings.File = path
	}
}

// IsMemoryOnly reports whether the configured kind keeps nothing on disk.
func (s *Safe) IsMemoryOnly() bool {
	return s.Settings().EffectiveKind() == config.KindMemoryOnly
}

func (s *Safe) RememberPasswordByDefault() bool {
	return s.Settings().RememberPasswordByDefault
}

func (s *Safe) SetRememberPasswordByDefault(v bool) {
	s.mu.Lock()
	s.settings.RememberPasswordByDefault = v
	s.mu.Unlock()
}

// Get reads the active backend first. When it has no password the overlay
// is consulted, but only if it was ever used.
func (s *Safe) Get(attrs Attributes) (*Credentials, error) {
	value, err := s.Current().Get(attrs)
	if err != nil || !value.HasPassword() {
		if m := s.memory.Load(); m != nil {
			if mv, _ := m.Get(attrs.Storable()); mv.HasPassword() {
				metrics.RecordLookup(metrics.TierOverlay)
				return mv, nil
			}
		}
	}
	if err != nil {
		return nil, storageError("failed to read credentials", attrs, err)
	}
	if value.IsEmpty() {
		metrics.RecordLookup(metrics.TierMiss)
		return nil, nil
	}
	metrics.RecordLookup(metrics.TierPrimary)
	return value, nil
}

// Set writes creds. A memory-only password goes to the overlay and only the
// user name reaches the active backend; a persisted write evicts any stale
// overlay copy.
func (s *Safe) Set(attrs Attributes, creds *Credentials) error {
	primary := s.Current()
	if attrs.PasswordMemoryOnly && creds.HasPassword() {
		if err := s.overlay().Set(attrs.Storable(), creds); err != nil {
			return err
		}
		metrics.RecordWrite(metrics.TierOverlay)
		if err := primary.Set(attrs, creds.withoutPassword()); err != nil {
			return storageError("failed to write credentials", attrs, err)
		}
		return nil
	}

	if err := primary.Set(attrs, creds); err != nil {
		return storageError("failed to write credentials", attrs, err)
	}
	metrics.RecordWrite(metrics.TierPrimary)
	if m := s.memory.Load(); m != nil {
		_ = m.Set(attrs.Storable(), nil)
	}
	return nil
}

// SetMemoryOnly stores creds in the overlay and removes the slot from the
// active backend, or behaves like Set when memoryOnly is false.
func (s *Safe) SetMemoryOnly(attrs Attributes, creds *Credentials, memoryOnly bool) error {
	if !memoryOnly {
		return s.Set(attrs, creds)
	}
	if err := s.overlay().Set(attrs.Storable(), creds); err != nil {
		return err
	}
	metrics.RecordWrite(metrics.TierOverlay)
	if err := s.Current().Set(attrs, nil); err != nil {
		return storageError("failed to remove persisted credentials", attrs, err)
	}
	return nil
}

// IsPasswordStoredOnlyInMemory reports whether the password for attrs
// would not survive a restart: the configured kind is memory-only, creds has
// no password, or the overlay holds a password for attrs.
func (s *Safe) IsPasswordStoredOnlyInMemory(attrs Attributes, creds *Credentials) bool {
	if s.IsMemoryOnly() || !creds.HasPassword() {
		return true
	}
	m := s.memory.Load()
	if m == nil {
		return false
	}
	v, _ := m.Get(attrs.Storable())
	return v.HasPassword()
}

// Save flushes the active encrypted file store. Other backends persist on
// write, and nothing happens if no backend was built yet.
func (s *Safe) Save() error {
	st := s.CurrentIfComputed()
	if st == nil || st.Kind() != config.KindEncryptedFile {
		return nil
	}
	sv, ok := st.(Saver)
	if !ok {
		return nil
	}
	if err := sv.Save(); err != nil {
		details := map[string]any{}
		if pr, ok := st.(PathRebinder); ok {
			details["path"] = pr.Path()
		}
		return errors.Wrap(errors.CodeStorageFailed, "failed to save encrypted database", details, err)
	}
	return nil
}

// Result is delivered by GetAsync.
type Result struct {
	Credentials *Credentials
	Err         error
}

// GetAsync performs Get on another goroutine. The channel receives exactly
// one Result and is then closed.
func (s *Safe) GetAsync(attrs Attributes) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		c, err := s.Get(attrs)
		out <- Result{Credentials: c, Err: err}
	}()
	return out
}

func storageError(msg string, attrs Attributes, err error) error {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	return errors.Wrap(errors.CodeStorageFailed, msg, map[string]any{"service": attrs.Service}, err)
}

// cleanPath makes paths comparable.
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
