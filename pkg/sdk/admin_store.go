package sdk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// AdminCredentialStore keeps the admin username and authenticated flag in
// durable storage and the password in ephemeral storage only.
//
// The password additionally lives in an in-memory cache for the lifetime of
// the store so that basic-auth calls work in the same session even without
// remember-me. It is never written to durable storage.
type AdminCredentialStore struct {
	durable   storageWriter
	ephemeral storageWriter
	logger    *slog.Logger

	mu       sync.RWMutex
	username string
	password string
}

func newAdminCredentialStore(durable, ephemeral storageWriter, logger *slog.Logger) *AdminCredentialStore {
	return &AdminCredentialStore{durable: durable, ephemeral: ephemeral, logger: logger}
}

// Remember records a successful admin login.
func (s *AdminCredentialStore) Remember(username, password string, rememberMe bool) error {
	if username == "" {
		return errors.New("admin username is required")
	}

	s.mu.Lock()
	s.username = username
	s.password = password
	s.mu.Unlock()

	if err := s.durable.set(AdminUsernameKey, username); err != nil {
		return fmt.Errorf("failed to save admin username: %w", err)
	}
	if err := s.durable.set(AdminFlagKey, "true"); err != nil {
		return fmt.Errorf("failed to save admin flag: %w", err)
	}
	if !rememberMe {
		// An earlier remember-me login must not leave its password behind.
		if err := s.ephemeral.remove(AdminPasswordKey); err != nil {
			return fmt.Errorf("failed to remove admin password: %w", err)
		}
		return nil
	}
	if err := s.ephemeral.set(AdminPasswordKey, password); err != nil {
		return fmt.Errorf("failed to save admin password: %w", err)
	}
	return nil
}

// CurrentUsername returns the stored admin username.
func (s *AdminCredentialStore) CurrentUsername() (string, bool) {
	if v, ok := s.read(s.durable, AdminUsernameKey); ok {
		return v, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.username != ""
}

// CurrentPassword returns the password remembered in ephemeral storage.
// It is absent when remember-me was not requested or the session ended.
func (s *AdminCredentialStore) CurrentPassword() (string, bool) {
	return s.read(s.ephemeral, AdminPasswordKey)
}

// IsAuthenticated requires the durable flag and a stored username together.
// A true flag without a username counts as unauthenticated.
func (s *AdminCredentialStore) IsAuthenticated() bool {
	flag, ok := s.read(s.durable, AdminFlagKey)
	if !ok || flag != "true" {
		return false
	}
	_, ok = s.read(s.durable, AdminUsernameKey)
	return ok
}

// BasicCredentials returns the username/password pair for basic auth,
// preferring the in-memory cache and falling back to storage.
func (s *AdminCredentialStore) BasicCredentials() (username, password string, ok bool) {
	s.mu.RLock()
	username, password = s.username, s.password
	s.mu.RUnlock()

	if username == "" {
		username, _ = s.read(s.durable, AdminUsernameKey)
	}
	if password == "" {
		password, _ = s.CurrentPassword()
	}
	return username, password, username != "" && password != ""
}

// Forget clears both storage areas and the in-memory cache.
func (s *AdminCredentialStore) Forget() error {
	s.dropCache()

	var errs []error
	if err := s.durable.remove(AdminUsernameKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove admin username: %w", err))
	}
	if err := s.durable.remove(AdminFlagKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove admin flag: %w", err))
	}
	if err := s.ephemeral.remove(AdminPasswordKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove admin password: %w", err))
	}
	return errors.Join(errs...)
}

func (s *AdminCredentialStore) dropCache() {
	s.mu.Lock()
	s.username = ""
	s.password = ""
	s.mu.Unlock()
}

func (s *AdminCredentialStore) read(w storageWriter, key string) (string, bool) {
	v, ok, err := w.get(key)
	if err != nil {
		s.logger.Warn("failed to read admin credential", "key", key, "error", err)
		return "", false
	}
	return v, ok && v != ""
}
