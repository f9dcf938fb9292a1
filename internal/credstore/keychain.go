package credstore

import (
	"fmt"
	"strings"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/secret"
)

// userPasswordSeparator joins a user name into the stored value when the
// slot is addressed by service alone.
const userPasswordSeparator = "@@@"

const (
	probeService = secret.DefaultService + "-probe"
	probeAccount = "availability"
)

// KeychainStore keeps credentials in the OS keychain. Attributes.Service is
// the keychain service and Attributes.UserName the account.
type KeychainStore struct {
	name string
	ring secret.KeyringAPI
}

func NewKeychainStore(name string, ring secret.KeyringAPI) *KeychainStore {
	return &KeychainStore{name: name, ring: ring}
}

func (k *KeychainStore) Kind() config.Kind { return config.KindKeychain }

// Name identifies the keychain implementation ("go-keyring", "keyring").
func (k *KeychainStore) Name() string { return k.name }

func (k *KeychainStore) Get(attrs Attributes) (*Credentials, error) {
	value, err := k.ring.Get(attrs.Service, attrs.UserName)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.CodeKeychainUnavailable, "failed to read keychain", map[string]any{"service": attrs.Service}, err)
	}
	if attrs.UserName != "" {
		return NewCredentials(attrs.UserName, []byte(value)), nil
	}
	user, password, ok := strings.Cut(value, userPasswordSeparator)
	if !ok {
		return NewCredentials("", []byte(value)), nil
	}
	return NewCredentials(user, []byte(password)), nil
}

func (k *KeychainStore) Set(attrs Attributes, creds *Credentials) error {
	if attrs.PasswordMemoryOnly {
		creds = creds.withoutPassword()
	}
	var value string
	switch {
	case creds.IsEmpty():
	case attrs.UserName == "" && creds.UserName != "":
		value = creds.UserName + userPasswordSeparator + creds.PasswordString()
	default:
		value = creds.PasswordString()
	}
	if value == "" {
		err := k.ring.Delete(attrs.Service, attrs.UserName)
		if err != nil && !errors.Is(err, secret.ErrNotFound) {
			return errors.Wrap(errors.CodeKeychainUnavailable, "failed to delete from keychain", map[string]any{"service": attrs.Service}, err)
		}
		return nil
	}
	if err := k.ring.Set(attrs.Service, attrs.UserName, value); err != nil {
		return errors.Wrap(errors.CodeKeychainUnavailable, "failed to write keychain", map[string]any{"service": attrs.Service}, err)
	}
	return nil
}

// KeychainFactory creates a keychain backend, or reports that the platform
// keychain cannot be used.
type KeychainFactory interface {
	Name() string
	Create() (Store, error)
}

type keyringFactory struct {
	name string
	open func() (secret.KeyringAPI, error)
}

// NewKeychainFactory builds a factory from an opener. The opened keyring is
// probed once; any error other than "not found" makes it unavailable.
func NewKeychainFactory(name string, open func() (secret.KeyringAPI, error)) KeychainFactory {
	return &keyringFactory{name: name, open: open}
}

func (f *keyringFactory) Name() string { return f.name }

func (f *keyringFactory) Create() (Store, error) {
	ring, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	if _, err := ring.Get(probeService, probeAccount); err != nil && !errors.Is(err, secret.ErrNotFound) {
		return nil, fmt.Errorf("%s: keychain probe failed: %w", f.name, err)
	}
	return NewKeychainStore(f.name, ring), nil
}

// DefaultKeychainFactories tries go-keyring first, then 99designs/keyring.
func DefaultKeychainFactories() []KeychainFactory {
	return []KeychainFactory{
		NewKeychainFactory("go-keyring", func() (secret.KeyringAPI, error) { return secret.Default(), nil }),
		NewKeychainFactory("keyring", func() (secret.KeyringAPI, error) { return secret.OpenRing(secret.DefaultService) }),
	}
}
