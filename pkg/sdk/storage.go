package sdk

import (
	"sync"
)

// Storage keys shared by every Session in the process.
const (
	TokenKey         = "access_token"
	ProfileKey       = "user_data"
	AdminUsernameKey = "adminUsername"
	AdminFlagKey     = "isAdminAuthenticated"
	AdminPasswordKey = "adminPassword"
)

// Storage is a string key/value area. Implementations must be safe for
// concurrent use; writes are last-writer-wins.
//
// Only TokenStore and AdminCredentialStore read or write a Storage directly.
type Storage interface {
	// Get returns the value for key. A missing key is reported with ok=false
	// and a nil error.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// StorageArea tells durable and ephemeral storage apart in events.
type StorageArea string

const (
	AreaDurable   StorageArea = "durable"
	AreaEphemeral StorageArea = "ephemeral"
)

// StorageEvent describes a single mutation of a storage area.
type StorageEvent struct {
	Area     StorageArea
	Key      string
	NewValue string
	Removed  bool
	// Origin identifies the Session that performed the write.
	Origin string
}

// StorageBus fans storage mutations out to every subscriber in the process.
// It plays the role of the browser's cross-tab "storage" event.
type StorageBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(StorageEvent)
}

// NewStorageBus returns an empty bus.
func NewStorageBus() *StorageBus {
	return &StorageBus{handlers: make(map[int]func(StorageEvent))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *StorageBus) Subscribe(fn func(StorageEvent)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber synchronously. Handlers run outside
// the bus lock so they may publish or unsubscribe themselves.
func (b *StorageBus) Publish(ev StorageEvent) {
	b.mu.RLock()
	handlers := make([]func(StorageEvent), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Environment bundles the storage areas a Session is built on.
type Environment struct {
	// Durable survives process restarts (the "localStorage" analogue).
	Durable Storage
	// Ephemeral is cleared when the process ends (the "sessionStorage" analogue).
	Ephemeral Storage
	// Bus carries mutation events between Sessions sharing the storages.
	// A nil Bus disables cross-session notifications.
	Bus *StorageBus
}

// NewMemoryEnvironment returns an Environment backed entirely by memory.
func NewMemoryEnvironment() Environment {
	return Environment{
		Durable:   NewMemoryStorage(),
		Ephemeral: NewMemoryStorage(),
		Bus:       NewStorageBus(),
	}
}

// MemoryStorage is a thread-safe in-memory Storage.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	return v, ok, nil
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Clear drops every key, simulating the end of a browser session.
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
}

// storageWriter writes to one area and announces the mutation on the bus.
type storageWriter struct {
	area   StorageArea
	store  Storage
	bus    *StorageBus
	origin string
}

func (w storageWriter) get(key string) (string, bool, error) {
	return w.store.Get(key)
}

func (w storageWriter) set(key, value string) error {
	if err := w.store.Set(key, value); err != nil {
		return err
	}
	w.publish(StorageEvent{Area: w.area, Key: key, NewValue: value, Origin: w.origin})
	return nil
}

func (w storageWriter) remove(key string) error {
	if err := w.store.Remove(key); err != nil {
		return err
	}
	w.publish(StorageEvent{Area: w.area, Key: key, Removed: true, Origin: w.origin})
	return nil
}

func (w storageWriter) publish(ev StorageEvent) {
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}
