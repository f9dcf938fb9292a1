package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/filedb"
	"github.com/zx06/credsafe/internal/secret"
)

func TestMain(m *testing.M) {
	filedb.DefaultKDF = filedb.KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1}
	os.Exit(m.Run())
}

// fakeRing is an in-memory secret.KeyringAPI. err, when set, fails every call.
type fakeRing struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeRing() *fakeRing {
	return &fakeRing{values: make(map[string]string)}
}

func (r *fakeRing) Get(service, account string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	v, ok := r.values[service+"|"+account]
	if !ok {
		return "", secret.ErrNotFound
	}
	return v, nil
}

func (r *fakeRing) Set(service, account, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.values[service+"|"+account] = value
	return nil
}

func (r *fakeRing) Delete(service, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	k := service + "|" + account
	if _, ok := r.values[k]; !ok {
		return secret.ErrNotFound
	}
	delete(r.values, k)
	return nil
}

func (r *fakeRing) has(service, account string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.values[service+"|"+account]
	return ok
}

func ringFactory(r *fakeRing) KeychainFactory {
	return NewKeychainFactory("fake", func() (secret.KeyringAPI, error) { return r, nil })
}

func brokenFactory() KeychainFactory {
	return NewKeychainFactory("broken", func() (secret.KeyringAPI, error) {
		return nil, errors.New("no keychain on this host")
	})
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func settingsFor(t *testing.T, kind config.Kind) config.StoreSettings {
	t.Helper()
	return config.StoreSettings{Kind: kind, Dir: t.TempDir(), RememberPasswordByDefault: true}
}

// newTestSafe never touches the real keychain unless a factory is passed.
func newTestSafe(settings config.StoreSettings, opts ...Option) *Safe {
	base := []Option{
		WithKeychainFactories(),
		WithMasterKeyStorage(NewMasterKeyStorage(nil)),
	}
	return New(settings, append(base, opts...)...)
}

func dbPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "store"+config.DBFileExt)
}

func attrs(service, user string) Attributes {
	return Attributes{Service: service, UserName: user}
}

func creds(user, password string) *Credentials {
	return NewCredentials(user, []byte(password))
}

// writeDB creates an encrypted database at path protected by password.
func writeDB(t *testing.T, path, password string, entries ...filedb.Entry) {
	t.Helper()
	db := filedb.New()
	for _, e := range entries {
		db.Put(e)
	}
	if err := filedb.Save(path, []byte(password), db); err != nil {
		t.Fatalf("write database: %v", err)
	}
}

func writeGarbage(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("definitely not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
}
