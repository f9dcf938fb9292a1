package secret

import (
	stderrors "errors"
	"runtime"
	"strings"
	"testing"

	ring "github.com/99designs/keyring"
	"github.com/zalando/go-keyring"
)

func TestKeyringAPI_Interface(t *testing.T) {
	var _ KeyringAPI = (*mockKeyring)(nil)
	var _ KeyringAPI = (*osKeyring)(nil)
	var _ KeyringAPI = (*ringKeyring)(nil)
}

func TestDefaultKeyringCRUD(t *testing.T) {
	keyring.MockInit()

	kr := Default()
	if _, ok := kr.(*osKeyring); !ok {
		t.Fatalf("expected *osKeyring, got %T", kr)
	}

	if err := kr.Set("credsafe-test", "acct", "secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kr.Get("credsafe-test", "acct")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "secret" {
		t.Fatalf("Get returned %q, want %q", got, "secret")
	}
	if err := kr.Delete("credsafe-test", "acct"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kr.Get("credsafe-test", "acct"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Delete, got %v", err)
	}
	if err := kr.Delete("credsafe-test", "acct"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing entry, got %v", err)
	}
}

func TestDefaultKeyring_BackendError(t *testing.T) {
	boom := stderrors.New("dbus unavailable")
	keyring.MockInitWithError(boom)
	t.Cleanup(keyring.MockInit)

	_, err := Default().Get("credsafe-test", "acct")
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestDefaultKeyring_NullByteBehavior(t *testing.T) {
	keyring.MockInit()
	kr := Default()
	raw := "s\x00e\x00c\x00r\x00e\x00t\x00"
	if err := kr.Set("credsafe-test", "null-byte", raw); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kr.Get("credsafe-test", "null-byte")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if runtime.GOOS == "windows" {
		if strings.Contains(got, "\x00") || got != "secret" {
			t.Fatalf("expected null bytes to be stripped, got %q", got)
		}
		return
	}
	if got != raw {
		t.Fatalf("expected raw value on non-windows, got %q", got)
	}
}

func TestRingKeyringCRUD(t *testing.T) {
	kr := &ringKeyring{ring: ring.NewArrayKeyring(nil)}

	if _, err := kr.Get("credsafe", "git"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kr.Set("credsafe", "git", "s3cr3t"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kr.Get("credsafe", "git")
	if err != nil || got != "s3cr3t" {
		t.Fatalf("Get=(%q,%v) want s3cr3t", got, err)
	}
	// service 是 key 的一部分
	if _, err := kr.Get("other", "git"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other service, got %v", err)
	}
	if err := kr.Delete("credsafe", "git"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kr.Get("credsafe", "git"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
