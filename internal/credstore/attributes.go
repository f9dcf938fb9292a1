package credstore

import "slices"

// Attributes identify a credential slot. Two attributes address the same
// slot when Service and UserName match; PasswordMemoryOnly only decides
// where the password is routed.
type Attributes struct {
	Service            string
	UserName           string
	PasswordMemoryOnly bool
}

// Key is the lookup identity of Attributes.
type Key struct {
	Service  string
	UserName string
}

func (a Attributes) Key() Key {
	return Key{Service: a.Service, UserName: a.UserName}
}

// Storable returns a copy with the memory-only flag cleared.
func (a Attributes) Storable() Attributes {
	a.PasswordMemoryOnly = false
	return a
}

// Credentials is an immutable user name / password pair. A nil
// *Credentials means "absent"; an empty password means "no secret".
type Credentials struct {
	UserName string
	password []byte
}

// NewCredentials copies password so later changes by the caller do not leak in.
func NewCredentials(userName string, password []byte) *Credentials {
	return &Credentials{UserName: userName, password: slices.Clone(password)}
}

// Password returns a copy of the password.
func (c *Credentials) Password() []byte {
	if c == nil {
		return nil
	}
	return slices.Clone(c.password)
}

func (c *Credentials) PasswordString() string {
	if c == nil {
		return ""
	}
	return string(c.password)
}

func (c *Credentials) HasPassword() bool {
	return c != nil && len(c.password) > 0
}

// IsEmpty reports whether c carries neither a user name nor a password.
func (c *Credentials) IsEmpty() bool {
	return c == nil || (c.UserName == "" && len(c.password) == 0)
}

// withoutPassword keeps only the user name; nil when nothing is left.
func (c *Credentials) withoutPassword() *Credentials {
	if c == nil || c.UserName == "" {
		return nil
	}
	return &Credentials{UserName: c.UserName}
}
