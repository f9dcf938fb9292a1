package secret

import "fmt"

// mockKeyring 模拟 keyring 实现，用于单元测试
type mockKeyring struct {
	data map[string]map[string]string // service -> account -> value
}

func newMockKeyring() *mockKeyring {
	return &mockKeyring{data: make(map[string]map[string]string)}
}

func (m *mockKeyring) set(service, account, value string) {
	if m.data[service] == nil {
		m.data[service] = make(map[string]string)
	}
	m.data[service][account] = value
}

func (m *mockKeyring) Get(service, account string) (string, error) {
	if service == "" || account == "" {
		return "", fmt.Errorf("invalid key %q/%q", service, account)
	}
	if svc, ok := m.data[service]; ok {
		if v, ok := svc[account]; ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func (m *mockKeyring) Set(service, account, value string) error {
	m.set(service, account, value)
	return nil
}

func (m *mockKeyring) Delete(service, account string) error {
	if svc, ok := m.data[service]; ok {
		if _, ok := svc[account]; ok {
			delete(svc, account)
			return nil
		}
	}
	return ErrNotFound
}
