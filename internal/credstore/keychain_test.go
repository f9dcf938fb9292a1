package credstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/zx06/credsafe/internal/config"
	xerrors "github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/secret"
)

func TestKeychainStore_WithUser(t *testing.T) {
	r := newFakeRing()
	k := NewKeychainStore("fake", r)
	assert.Equal(t, config.KindKeychain, k.Kind())

	require.NoError(t, k.Set(attrs("git", "alice"), creds("alice", "s3cr3t")))
	assert.Equal(t, "s3cr3t", r.values["git|alice"])

	got, err := k.Get(attrs("git", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, "s3cr3t", got.PasswordString())
}

func TestKeychainStore_JoinsUserWithoutAttributeUser(t *testing.T) {
	r := newFakeRing()
	k := NewKeychainStore("fake", r)

	require.NoError(t, k.Set(attrs("git", ""), creds("alice", "s3cr3t")))
	assert.Equal(t, "alice@@@s3cr3t", r.values["git|"])

	got, err := k.Get(attrs("git", ""))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, "s3cr3t", got.PasswordString())
}

func TestKeychainStore_RemoveAndMissing(t *testing.T) {
	r := newFakeRing()
	k := NewKeychainStore("fake", r)

	got, err := k.Get(attrs("git", "nobody"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, k.Set(attrs("git", "alice"), creds("alice", "x")))
	require.NoError(t, k.Set(attrs("git", "alice"), nil))
	assert.False(t, r.has("git", "alice"))

	// deleting an absent entry is fine
	require.NoError(t, k.Set(attrs("git", "alice"), nil))
}

func TestKeychainStore_MemoryOnlyNeverWritesPassword(t *testing.T) {
	r := newFakeRing()
	k := NewKeychainStore("fake", r)

	a := Attributes{Service: "git", UserName: "alice", PasswordMemoryOnly: true}
	require.NoError(t, k.Set(a, creds("alice", "s3cr3t")))
	assert.False(t, r.has("git", "alice"))
}

func TestKeychainStore_ErrorsAreTyped(t *testing.T) {
	r := newFakeRing()
	r.err = errors.New("dbus down")
	k := NewKeychainStore("fake", r)

	_, err := k.Get(attrs("git", "alice"))
	require.Error(t, err)
	assert.True(t, xerrors.HasCode(err, xerrors.CodeKeychainUnavailable))

	err = k.Set(attrs("git", "alice"), creds("alice", "x"))
	assert.True(t, xerrors.HasCode(err, xerrors.CodeKeychainUnavailable))
}

func TestKeychainFactory_Probe(t *testing.T) {
	st, err := ringFactory(newFakeRing()).Create()
	require.NoError(t, err)
	assert.Equal(t, config.KindKeychain, st.Kind())

	r := newFakeRing()
	r.err = errors.New("locked")
	_, err = ringFactory(r).Create()
	assert.Error(t, err)

	_, err = brokenFactory().Create()
	assert.Error(t, err)
}

func TestKeychainFactory_GoKeyringMock(t *testing.T) {
	keyring.MockInit()

	f := NewKeychainFactory("go-keyring", func() (secret.KeyringAPI, error) { return secret.Default(), nil })
	st, err := f.Create()
	require.NoError(t, err)

	require.NoError(t, st.Set(attrs("credsafe-test", "alice"), creds("alice", "pw")))
	got, err := st.Get(attrs("credsafe-test", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "pw", got.PasswordString())
}

func TestKeychainFactory_GoKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)

	f := NewKeychainFactory("go-keyring", func() (secret.KeyringAPI, error) { return secret.Default(), nil })
	_, err := f.Create()
	assert.Error(t, err)
}
