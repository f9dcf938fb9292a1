package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zx06/credsafe/internal/config"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	assert.Equal(t, config.KindMemoryOnly, m.Kind())

	require.NoError(t, m.Set(attrs("git", "alice"), creds("alice", "s3cr3t")))
	got, err := m.Get(attrs("git", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got.PasswordString())

	got, err = m.Get(attrs("git", "bob"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_EmptyUserPicksLowestName(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Set(attrs("git", "zed"), creds("zed", "z")))
	require.NoError(t, m.Set(attrs("git", "amy"), creds("amy", "a")))

	got, err := m.Get(attrs("git", ""))
	require.NoError(t, err)
	assert.Equal(t, "amy", got.UserName)
}

func TestMemoryStore_RemoveAndClear(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Set(attrs("a", "u"), creds("u", "1")))
	require.NoError(t, m.Set(attrs("b", "u"), creds("u", "2")))

	require.NoError(t, m.Set(attrs("a", "u"), nil))
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestCredentials_CopiesPassword(t *testing.T) {
	pw := []byte("secret")
	c := NewCredentials("u", pw)
	pw[0] = 'X'
	assert.Equal(t, "secret", c.PasswordString())

	out := c.Password()
	out[0] = 'Y'
	assert.Equal(t, "secret", c.PasswordString())
}

func TestCredentials_Emptiness(t *testing.T) {
	tests := []struct {
		name     string
		c        *Credentials
		empty    bool
		password bool
	}{
		{"nil", nil, true, false},
		{"blank", NewCredentials("", nil), true, false},
		{"user only", NewCredentials("u", nil), false, false},
		{"password only", NewCredentials("", []byte("p")), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.c.IsEmpty())
			assert.Equal(t, tt.password, tt.c.HasPassword())
		})
	}
}

func TestAttributes_KeyIgnoresMemoryOnly(t *testing.T) {
	a := Attributes{Service: "git", UserName: "alice", PasswordMemoryOnly: true}
	assert.Equal(t, attrs("git", "alice").Key(), a.Key())
	assert.False(t, a.Storable().PasswordMemoryOnly)
	assert.True(t, a.PasswordMemoryOnly)
}
