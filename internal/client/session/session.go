// Пакет session — хранилище клиентской сессии (токен + профиль пользователя).
// Единственный writer — login/logout flow; читатели получают копию.
package session

import (
	"sync"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// Session — аутентифицированная сессия клиента.
type Session struct {
	// Token — access token (непрозрачная строка).
	Token string `json:"token"`
	// User — профиль пользователя на момент входа.
	User model.User `json:"user"`
}

// clone возвращает независимую копию сессии.
func (s *Session) clone() *Session {
	c := *s
	if s.User.ApprovedBy != nil {
		v := *s.User.ApprovedBy
		c.User.ApprovedBy = &v
	}
	return &c
}

// Reader — синхронное чтение текущей сессии.
type Reader interface {
	// Get возвращает копию текущей сессии или nil.
	Get() *Session
}

// Store — хранилище сессии.
type Store interface {
	Reader
	// Set заменяет текущую сессию.
	Set(s Session) error
	// Clear удаляет сессию. Повторный вызов ничего не меняет.
	Clear() error
	// Subscribe регистрирует наблюдателя изменений (nil — сессия удалена).
	// Возвращает функцию отписки.
	Subscribe(fn func(*Session)) (unsubscribe func())
}

// MemoryStore — сессия в памяти процесса.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(*Session)
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]func(*Session))}
}

// Get возвращает копию текущей сессии или nil.
func (m *MemoryStore) Get() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	return m.current.clone()
}

// Set заменяет текущую сессию.
func (m *MemoryStore) Set(s Session) error {
	m.mu.Lock()
	m.current = s.clone()
	m.mu.Unlock()
	m.notify()
	return nil
}

// Clear удаляет сессию. Наблюдатели уведомляются только при
// фактическом изменении.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	m.mu.Unlock()
	if had {
		m.notify()
	}
	return nil
}

// Subscribe регистрирует наблюдателя изменений.
func (m *MemoryStore) Subscribe(fn func(*Session)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// notify вызывает наблюдателей вне блокировок, каждый со своей копией.
func (m *MemoryStore) notify() {
	m.subMu.Lock()
	fns := make([]func(*Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(m.Get())
	}
}
