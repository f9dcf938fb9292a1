package credstore

import (
	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/filedb"
)

// Store is implemented by every backend. Set with nil credentials removes
// the slot.
type Store interface {
	Kind() config.Kind
	Get(attrs Attributes) (*Credentials, error)
	Set(attrs Attributes, creds *Credentials) error
}

// Optional capabilities. Callers discover them with a type assertion
// instead of inspecting concrete backend types.
type (
	Saver interface {
		Save() error
	}

	Clearer interface {
		Clear()
	}

	Rekeyer interface {
		SetMasterPassword(password []byte) error
	}

	Copier interface {
		CopyTo(dst Store) error
	}

	PathRebinder interface {
		Path() string
		SetPath(path string)
	}

	MemoryOnlyToggle interface {
		IsMemoryOnly() bool
		SetMemoryOnly(memoryOnly bool)
		DeleteFileStorage() error
	}

	// EntryLister lists stored entries with passwords removed.
	EntryLister interface {
		Entries() []filedb.Entry
	}
)

// fileBacked is the full capability set of the encrypted-file backend.
type fileBacked interface {
	Store
	Saver
	Clearer
	Rekeyer
	Copier
	EntryLister
	PathRebinder
	MemoryOnlyToggle
}

func asFileBacked(st Store) (fileBacked, bool) {
	if st == nil || st.Kind() != config.KindEncryptedFile {
		return nil, false
	}
	fb, ok := st.(fileBacked)
	return fb, ok
}
