package filedb

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrWrongMasterPassword = stderrors.New("filedb: master password is not correct")
	ErrCorrupted           = stderrors.New("filedb: database file is corrupted")
)

const (
	formatVersion = 1
	saltSize      = 16
	keySize       = chacha20poly1305.KeySize

	// magic(4) version(1) time(4) memory(4) threads(1) salt nonce
	headerSize = 4 + 1 + 4 + 4 + 1 + saltSize + chacha20poly1305.NonceSizeX

	maxKDFMemory  = 1 << 20 // KiB
	maxKDFTime    = 16
	maxKDFThreads = 64
)

var magic = [4]byte{'C', 'S', 'D', 'B'}

// KDFParams are the Argon2id parameters written into every new file.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF is used by Encode and Save. Tests may lower it.
var DefaultKDF = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

type payload struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

func deriveKey(password, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, keySize)
}

// Encode serializes and seals db with password.
func Encode(db *Database, password []byte) ([]byte, error) {
	plain, err := json.Marshal(payload{Version: formatVersion, Entries: db.Entries()})
	if err != nil {
		return nil, fmt.Errorf("filedb: encode: %w", err)
	}

	p := DefaultKDF
	header := make([]byte, headerSize)
	copy(header[0:4], magic[:])
	header[4] = formatVersion
	binary.BigEndian.PutUint32(header[5:9], p.Time)
	binary.BigEndian.PutUint32(header[9:13], p.Memory)
	header[13] = p.Threads
	salt := header[14 : 14+saltSize]
	nonce := header[14+saltSize:]
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("filedb: salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("filedb: nonce: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(password, salt, p))
	if err != nil {
		return nil, fmt.Errorf("filedb: cipher: %w", err)
	}
	// header is authenticated as associated data
	sealed := aead.Seal(nil, nonce, plain, header)
	return append(header, sealed...), nil
}

// Decode opens data sealed by Encode.
func Decode(data, password []byte) (*Database, error) {
	if len(data) < headerSize || !bytes.Equal(data[0:4], magic[:]) {
		return nil, ErrCorrupted
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupted, data[4])
	}
	p := KDFParams{
		Time:    binary.BigEndian.Uint32(data[5:9]),
		Memory:  binary.BigEndian.Uint32(data[9:13]),
		Threads: data[13],
	}
	if p.Time == 0 || p.Time > maxKDFTime || p.Memory == 0 || p.Memory > maxKDFMemory || p.Threads == 0 || p.Threads > maxKDFThreads {
		return nil, fmt.Errorf("%w: invalid kdf parameters", ErrCorrupted)
	}
	header := data[:headerSize]
	salt := header[14 : 14+saltSize]
	nonce := header[14+saltSize:]

	aead, err := chacha20poly1305.NewX(deriveKey(password, salt, p))
	if err != nil {
		return nil, fmt.Errorf("filedb: cipher: %w", err)
	}
	plain, err := aead.Open(nil, nonce, data[headerSize:], header)
	if err != nil {
		return nil, ErrWrongMasterPassword
	}

	var pl payload
	if err := json.Unmarshal(plain, &pl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	db := New()
	for _, e := range pl.Entries {
		if e.Service == "" {
			return nil, fmt.Errorf("%w: entry without service", ErrCorrupted)
		}
		db.entries[entryKey{e.Service, e.UserName}] = e
	}
	return db, nil
}

// Load reads and decrypts the database at path. A missing file is reported
// with an error satisfying errors.Is(err, os.ErrNotExist).
func Load(path string, password []byte) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Save atomically replaces the file at path with db sealed by password.
func Save(path string, password []byte, db *Database) error {
	data, err := Encode(db, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	db.markClean()
	return nil
}

// Exists reports whether a database file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
