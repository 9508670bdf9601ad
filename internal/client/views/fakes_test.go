package views

import (
	"context"
	"errors"

	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/client/session"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

var errNotConfigured = errors.New("не настроено")

// fakeAPI — мок API с func-полями; незаданный метод возвращает ошибку.
type fakeAPI struct {
	calls int

	listProductsFn       func(ctx context.Context) ([]*model.Product, error)
	getProductFn         func(ctx context.Context, id string) (*model.Product, error)
	createProductFn      func(ctx context.Context, data model.ProductData) (*model.Product, error)
	updateProductFn      func(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	deleteProductFn      func(ctx context.Context, id string) error
	listUsersFn          func(ctx context.Context) ([]*model.User, error)
	listPendingUsersFn   func(ctx context.Context) ([]*model.User, error)
	approveUserFn        func(ctx context.Context, id string) error
	listInviteCodesFn    func(ctx context.Context) ([]*model.InviteCode, error)
	generateInviteCodeFn func(ctx context.Context, req gateway.GenerateInviteCodeRequest) (*model.InviteCode, error)
	listAuditLogsFn      func(ctx context.Context, f gateway.AuditFilter) ([]*model.AuditLogEntry, error)
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]*model.Product, error) {
	f.calls++
	if f.listProductsFn == nil {
		return nil, errNotConfigured
	}
	return f.listProductsFn(ctx)
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	f.calls++
	if f.getProductFn == nil {
		return nil, errNotConfigured
	}
	return f.getProductFn(ctx, id)
}

func (f *fakeAPI) CreateProduct(ctx context.Context, data model.ProductData) (*model.Product, error) {
	f.calls++
	if f.createProductFn == nil {
		return nil, errNotConfigured
	}
	return f.createProductFn(ctx, data)
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	f.calls++
	if f.updateProductFn == nil {
		return nil, errNotConfigured
	}
	return f.updateProductFn(ctx, id, patch)
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id string) error {
	f.calls++
	if f.deleteProductFn == nil {
		return errNotConfigured
	}
	return f.deleteProductFn(ctx, id)
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]*model.User, error) {
	f.calls++
	if f.listUsersFn == nil {
		return nil, errNotConfigured
	}
	return f.listUsersFn(ctx)
}

func (f *fakeAPI) ListPendingUsers(ctx context.Context) ([]*model.User, error) {
	f.calls++
	if f.listPendingUsersFn == nil {
		return nil, errNotConfigured
	}
	return f.listPendingUsersFn(ctx)
}

func (f *fakeAPI) ApproveUser(ctx context.Context, id string) error {
	f.calls++
	if f.approveUserFn == nil {
		return errNotConfigured
	}
	return f.approveUserFn(ctx, id)
}

func (f *fakeAPI) ListInviteCodes(ctx context.Context) ([]*model.InviteCode, error) {
	f.calls++
	if f.listInviteCodesFn == nil {
		return nil, errNotConfigured
	}
	return f.listInviteCodesFn(ctx)
}

func (f *fakeAPI) GenerateInviteCode(ctx context.Context, req gateway.GenerateInviteCodeRequest) (*model.InviteCode, error) {
	f.calls++
	if f.generateInviteCodeFn == nil {
		return nil, errNotConfigured
	}
	return f.generateInviteCodeFn(ctx, req)
}

func (f *fakeAPI) ListAuditLogs(ctx context.Context, flt gateway.AuditFilter) ([]*model.AuditLogEntry, error) {
	f.calls++
	if f.listAuditLogsFn == nil {
		return nil, errNotConfigured
	}
	return f.listAuditLogsFn(ctx, flt)
}

// sessionFor возвращает хранилище с сессией роли role (пусто — без сессии).
func sessionFor(role string) *session.MemoryStore {
	s := session.NewMemoryStore()
	if role != "" {
		_ = s.Set(session.Session{Token: "tok", User: model.User{ID: "u-1", Name: "Ana", Role: role, Approved: true}})
	}
	return s
}

func strPtr(s string) *string { return &s }
