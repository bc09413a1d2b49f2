package auth

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
)

// EnclaveStore implements sdk.Storage in process memory, sealing every value
// in a memguard enclave. Nothing is written to disk, so its contents end
// with the process like a browser's session storage.
type EnclaveStore struct {
	mu      sync.Mutex
	entries map[string]*memguard.Enclave
}

var _ sdk.Storage = (*EnclaveStore)(nil)

// NewEnclaveStore returns an empty store.
func NewEnclaveStore() *EnclaveStore {
	return &EnclaveStore{entries: make(map[string]*memguard.Enclave)}
}

func (s *EnclaveStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	enclave, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	if enclave == nil {
		return "", true, nil
	}
	buf, err := enclave.Open()
	if err != nil {
		return "", false, fmt.Errorf("opening sealed %s: %w", key, err)
	}
	defer buf.Destroy()
	return string(buf.Bytes()), true, nil
}

func (s *EnclaveStore) Set(key, value string) error {
	var enclave *memguard.Enclave
	if value != "" {
		// NewEnclave wipes its argument, so hand it a private copy.
		enclave = memguard.NewEnclave([]byte(value))
	}
	s.mu.Lock()
	s.entries[key] = enclave
	s.mu.Unlock()
	return nil
}

func (s *EnclaveStore) Remove(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Purge drops every entry and wipes memguard's session key material.
// Call it once before the process exits.
func (s *EnclaveStore) Purge() {
	s.mu.Lock()
	s.entries = make(map[string]*memguard.Enclave)
	s.mu.Unlock()
	memguard.Purge()
}
