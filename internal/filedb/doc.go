// Package filedb implements the encrypted single-file credential database.
//
// A database file is a short binary header followed by an XChaCha20-Poly1305
// sealed JSON payload. The sealing key is derived from the master password
// with Argon2id; KDF parameters and salt live in the header so a file can be
// opened without any side configuration. A failed authentication is reported
// as ErrWrongMasterPassword, every structural problem as ErrCorrupted.
package filedb
