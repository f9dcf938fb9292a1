package credstore

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/secret"
)

// MasterKeyService is the keychain service master keys are stored under;
// the account is the absolute database path.
const MasterKeyService = secret.DefaultService + "-master"

// masterKeyFileExt is appended to the database path for the fallback file.
const masterKeyFileExt = ".pwd"

var ErrMasterKeyNotFound = stderrors.New("master key is not stored")

// MasterKeyStorage remembers the master password of each database so it
// can be reopened without prompting.
type MasterKeyStorage interface {
	Load(dbPath string) ([]byte, error)
	Save(dbPath string, key []byte) error
	Delete(dbPath string) error
}

type masterKeys struct {
	ring secret.KeyringAPI
}

// NewMasterKeyStorage keeps keys in ring and falls back to a 0600 file next
// to the database when ring is nil or fails.
func NewMasterKeyStorage(ring secret.KeyringAPI) MasterKeyStorage {
	return &masterKeys{ring: ring}
}

func masterKeyFile(dbPath string) string {
	return dbPath + masterKeyFileExt
}

func accountFor(dbPath string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		return abs
	}
	return dbPath
}

func (m *masterKeys) Load(dbPath string) ([]byte, error) {
	if m.ring != nil {
		v, err := m.ring.Get(MasterKeyService, accountFor(dbPath))
		if err == nil {
			return base64.StdEncoding.DecodeString(v)
		}
	}
	data, err := os.ReadFile(masterKeyFile(dbPath))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, ErrMasterKeyNotFound
		}
		return nil, err
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
}

func (m *masterKeys) Save(dbPath string, key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	if m.ring != nil {
		if err := m.ring.Set(MasterKeyService, accountFor(dbPath), encoded); err == nil {
			// the fallback file is stale once the keychain holds the key
			_ = os.Remove(masterKeyFile(dbPath))
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return err
	}
	return atomic.WriteFile(masterKeyFile(dbPath), bytes.NewReader([]byte(encoded+"\n")))
}

func (m *masterKeys) Delete(dbPath string) error {
	var errs []error
	if m.ring != nil {
		if err := m.ring.Delete(MasterKeyService, accountFor(dbPath)); err != nil && !errors.Is(err, secret.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(masterKeyFile(dbPath)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

// generateMasterKey returns a random printable password for a new database.
func generateMasterKey() ([]byte, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	key := make([]byte, base64.RawURLEncoding.EncodedLen(len(raw)))
	base64.RawURLEncoding.Encode(key, raw)
	return key, nil
}
