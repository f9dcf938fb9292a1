package secret

import (
	stderrors "errors"

	ring "github.com/99designs/keyring"
)

// nativeBackends 只允许系统原生 keychain；file/pass 后端不算 keychain。
var nativeBackends = []ring.BackendType{
	ring.KeychainBackend,
	ring.SecretServiceBackend,
	ring.KWalletBackend,
	ring.WinCredBackend,
}

// ringKeyring 通过 99designs/keyring 访问原生 keychain，作为 zalando/go-keyring 之外的第二个实现。
type ringKeyring struct {
	ring ring.Keyring
}

// OpenRing 打开 service 对应的原生 keyring；没有可用后端时返回错误，调用方可回退。
func OpenRing(service string) (KeyringAPI, error) {
	r, err := ring.Open(ring.Config{
		ServiceName:              service,
		AllowedBackends:          nativeBackends,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
	})
	if err != nil {
		return nil, err
	}
	return &ringKeyring{ring: r}, nil
}

func ringKey(service, account string) string {
	return service + "/" + account
}

func (k *ringKeyring) Get(service, account string) (string, error) {
	item, err := k.ring.Get(ringKey(service, account))
	if err != nil {
		if stderrors.Is(err, ring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

func (k *ringKeyring) Set(service, account, value string) error {
	return k.ring.Set(ring.Item{
		Key:         ringKey(service, account),
		Data:        []byte(value),
		Label:       service,
		Description: account,
	})
}

func (k *ringKeyring) Delete(service, account string) error {
	err := k.ring.Remove(ringKey(service, account))
	if stderrors.Is(err, ring.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}
