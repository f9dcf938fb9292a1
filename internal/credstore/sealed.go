package credstore

import (
	"slices"

	"github.com/awnumar/memguard"
)

// sealedSecret keeps a password encrypted in memory between uses.
type sealedSecret struct {
	enclave *memguard.Enclave
}

// sealSecret copies b before sealing; memguard wipes the buffer it is given.
// It returns nil for an empty secret.
func sealSecret(b []byte) *sealedSecret {
	if len(b) == 0 {
		return nil
	}
	return &sealedSecret{enclave: memguard.NewEnclave(slices.Clone(b))}
}

// Open returns a plain copy of the secret. The caller owns the copy.
func (s *sealedSecret) Open() ([]byte, error) {
	if s == nil || s.enclave == nil {
		return nil, nil
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()
	return slices.Clone(buf.Bytes()), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
