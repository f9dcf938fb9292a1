// Package credstore stores credentials behind one interchangeable backend
// (native keychain, encrypted file or memory) and overlays a memory tier for
// passwords that must never be persisted.
//
// Safe is the dispatcher callers read and write through. Configurator owns
// the backend transitions, master-password changes, import and clear.
package credstore
