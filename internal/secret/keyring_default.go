//go:build !windows

package secret

import (
	stderrors "errors"

	"github.com/zalando/go-keyring"
)

func (o *osKeyring) Get(service, account string) (string, error) {
	val, err := keyring.Get(service, account)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (o *osKeyring) Set(service, account, value string) error {
	return keyring.Set(service, account, value)
}

func (o *osKeyring) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
