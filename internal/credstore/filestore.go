package credstore

import (
	stderrors "errors"
	"fmt"
	"os"
	"sync"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/filedb"
)

// FileStoreOptions configure OpenFileStore.
type FileStoreOptions struct {
	Path string

	// MasterPassword overrides the stored master key. When nil the key is
	// read from MasterKeys, or generated for a database that does not exist.
	MasterPassword []byte

	// Preloaded is used instead of reading Path.
	Preloaded *filedb.Database

	// MemoryOnly keeps the database in memory and never touches Path.
	MemoryOnly bool

	MasterKeys MasterKeyStorage
}

// FileStore keeps credentials in an encrypted database file. Changes stay in
// memory until Save.
type FileStore struct {
	mu         sync.Mutex
	db         *filedb.Database
	path       string
	master     *sealedSecret
	masterKeys MasterKeyStorage

	// masterDirty means the master key has not been written to masterKeys yet.
	masterDirty bool
	memoryOnly  bool
}

// OpenFileStore opens or creates the database described by opts. A wrong
// master password yields an error matching filedb.ErrWrongMasterPassword.
func OpenFileStore(opts FileStoreOptions) (*FileStore, error) {
	s := &FileStore{
		path:       opts.Path,
		masterKeys: opts.MasterKeys,
		memoryOnly: opts.MemoryOnly,
	}
	if s.masterKeys == nil {
		s.masterKeys = NewMasterKeyStorage(nil)
	}
	if opts.MemoryOnly {
		s.db = opts.Preloaded
		if s.db == nil {
			s.db = filedb.New()
		}
		s.master = sealSecret(opts.MasterPassword)
		return s, nil
	}

	password := opts.MasterPassword
	explicit := len(password) > 0
	owned := false
	exists := opts.Preloaded != nil || filedb.Exists(opts.Path)
	if !explicit {
		stored, err := s.masterKeys.Load(opts.Path)
		switch {
		case err == nil:
			password, owned = stored, true
		case !stderrors.Is(err, ErrMasterKeyNotFound):
			return nil, fmt.Errorf("load master key: %w", err)
		case exists:
			return nil, fmt.Errorf("%s: %w", opts.Path, filedb.ErrWrongMasterPassword)
		default:
			if password, err = generateMasterKey(); err != nil {
				return nil, err
			}
			explicit, owned = true, true
		}
	}
	if owned {
		defer wipe(password)
	}

	switch {
	case opts.Preloaded != nil:
		s.db = opts.Preloaded
	case exists:
		db, err := filedb.Load(opts.Path, password)
		if err != nil {
			return nil, err
		}
		s.db = db
	default:
		s.db = filedb.New()
	}
	s.master = sealSecret(password)
	s.masterDirty = explicit
	return s, nil
}

func (s *FileStore) Kind() config.Kind { return config.KindEncryptedFile }

func (s *FileStore) Get(attrs Attributes) (*Credentials, error) {
	e, ok := s.database().Find(attrs.Service, attrs.UserName)
	if !ok {
		return nil, nil
	}
	return NewCredentials(e.UserName, e.Password), nil
}

// Set writes creds into the slot for attrs. A slot without a user name is
// the entry Get resolves it to, so a write there replaces that entry even
// when the user name changes.
func (s *FileStore) Set(attrs Attributes, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db
	if attrs.PasswordMemoryOnly {
		creds = creds.withoutPassword()
	}
	existing, found := db.Find(attrs.Service, attrs.UserName)
	if creds.IsEmpty() {
		if found {
			db.Remove(existing.Service, existing.UserName)
		}
		return nil
	}
	user := attrs.UserName
	if user == "" {
		user = creds.UserName
		if found && existing.UserName != user {
			db.Remove(existing.Service, existing.UserName)
		}
	}
	db.Put(filedb.Entry{Service: attrs.Service, UserName: user, Password: creds.Password()})
	return nil
}

func (s *FileStore) database() *filedb.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Save writes the database and the master key. It is a no-op for a
// memory-only store.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoryOnly {
		return nil
	}
	password, err := s.master.Open()
	if err != nil {
		return err
	}
	if len(password) == 0 {
		// a store created memory-only has no key yet
		if password, err = generateMasterKey(); err != nil {
			return err
		}
		s.master = sealSecret(password)
		s.masterDirty = true
	}
	defer wipe(password)

	if s.db.IsDirty() || !filedb.Exists(s.path) {
		if err := filedb.Save(s.path, password, s.db); err != nil {
			return err
		}
	}
	if s.masterDirty {
		if err := s.masterKeys.Save(s.path, password); err != nil {
			return fmt.Errorf("save master key: %w", err)
		}
		s.masterDirty = false
	}
	return nil
}

func (s *FileStore) Clear() {
	s.database().Clear()
}

// SetMasterPassword re-keys the database; the next Save rewrites the file.
func (s *FileStore) SetMasterPassword(password []byte) error {
	if len(password) == 0 {
		return fmt.Errorf("master password must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = sealSecret(password)
	s.masterDirty = true
	s.db.MarkDirty()
	return nil
}

// CopyTo writes every entry into dst.
func (s *FileStore) CopyTo(dst Store) error {
	var errs []error
	for _, e := range s.database().Entries() {
		attrs := Attributes{Service: e.Service, UserName: e.UserName}
		if err := dst.Set(attrs, NewCredentials(e.UserName, e.Password)); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Entries lists the stored entries without their passwords.
func (s *FileStore) Entries() []filedb.Entry {
	entries := s.database().Entries()
	for i := range entries {
		entries[i].Password = nil
	}
	return entries
}

func (s *FileStore) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath rebinds the store to another file; contents move with it on Save.
func (s *FileStore) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.path {
		return
	}
	s.path = path
	s.masterDirty = true
	s.db.MarkDirty()
}

func (s *FileStore) IsMemoryOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryOnly
}

func (s *FileStore) SetMemoryOnly(memoryOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoryOnly == memoryOnly {
		return
	}
	s.memoryOnly = memoryOnly
	if !memoryOnly {
		s.masterDirty = true
		s.db.MarkDirty()
	}
}

// DeleteFileStorage removes the database file and its stored master key.
func (s *FileStore) DeleteFileStorage() error {
	path := s.Path()
	err := os.Remove(path)
	if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.masterKeys.Delete(path)
}
