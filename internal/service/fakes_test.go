package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// memStore — хранилище в памяти для тестов сервисов.
// InTx откатывает все изменения, если fn вернула ошибку.
type memStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	codes    map[string]model.InviteCode
	products map[string]model.Product
	audit    []model.AuditLogEntry
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]model.User),
		codes:    make(map[string]model.InviteCode),
		products: make(map[string]model.Product),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) Repos() repository.Repos {
	return repository.Repos{
		Users:       &memUsers{s},
		InviteCodes: &memCodes{s},
		Products:    &memProducts{s},
		AuditLogs:   &memAudit{s},
	}
}

func (s *memStore) InTx(_ context.Context, fn func(r repository.Repos) error) error {
	s.mu.Lock()
	users := cloneMap(s.users)
	codes := cloneMap(s.codes)
	products := cloneMap(s.products)
	audit := append([]model.AuditLogEntry(nil), s.audit...)
	s.mu.Unlock()

	if err := fn(s.Repos()); err != nil {
		s.mu.Lock()
		s.users, s.codes, s.products, s.audit = users, codes, products, audit
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	u.CreatedAt = r.s.tick()
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) List(_ context.Context, approved *bool) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.User
	for _, u := range r.s.users {
		if approved != nil && u.Approved != *approved {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) Approve(_ context.Context, id, approvedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Approved = true
	u.ApprovedBy = &approvedBy
	r.s.users[id] = u
	return nil
}

func (r *memUsers) ExistsWithRole(_ context.Context, role string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// --- invite codes ---

type memCodes struct{ s *memStore }

func (r *memCodes) Create(_ context.Context, c *model.InviteCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.codes[c.Code]; ok {
		return repository.ErrConflict
	}
	c.CreatedAt = r.s.tick()
	if c.UsedBy == nil {
		c.UsedBy = []string{}
	}
	r.s.codes[c.Code] = *c
	return nil
}

func (r *memCodes) Get(_ context.Context, code string) (*model.InviteCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.UsedBy = append([]string(nil), c.UsedBy...)
	return &c, nil
}

func (r *memCodes) GetForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	return r.Get(ctx, code)
}

func (r *memCodes) List(_ context.Context) ([]*model.InviteCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.InviteCode
	for _, c := range r.s.codes {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memCodes) MarkUsed(_ context.Context, code, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	c.UsedCount++
	c.UsedBy = append(append([]string(nil), c.UsedBy...), userID)
	r.s.codes[code] = c
	return nil
}

// --- products ---

type memProducts struct{ s *memStore }

func (r *memProducts) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memProducts) GetForUpdate(ctx context.Context, id string) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *memProducts) List(_ context.Context) ([]*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Product
	for _, p := range r.s.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memProducts) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = r.s.tick()
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *memProducts) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.products), nil
}

// --- audit ---

type memAudit struct{ s *memStore }

func (r *memAudit) Append(_ context.Context, e *model.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.Timestamp = r.s.tick()
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r *memAudit) List(_ context.Context, f repository.AuditLogFilter) ([]*model.AuditLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.AuditLogEntry
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

// --- auth fakes ---

// plainHasher — хешер без bcrypt для быстрых тестов.
type plainHasher struct{}

var errMismatch = errors.New("пароль не совпадает")

func (plainHasher) Hash(p string) (string, error) { return "hash:" + p, nil }

func (plainHasher) Verify(hash, p string) error {
	if hash != "hash:"+p {
		return errMismatch
	}
	return nil
}

// mockIssuer — выпуск токенов через func-поле.
type mockIssuer struct {
	issueFn func(u *model.User) (string, error)
}

func (m *mockIssuer) Issue(u *model.User) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(u)
	}
	return "token-" + u.ID, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
