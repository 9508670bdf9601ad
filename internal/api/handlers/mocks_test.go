package handlers

import (
	"context"
	"encoding/json"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/service"
)

// mockAuth — мок AuthAPI.
type mockAuth struct {
	loginFn     func(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	registerFn  func(ctx context.Context, req service.RegisterRequest) (*model.User, error)
	initAdminFn func(ctx context.Context) (*service.InitAdminResult, error)
}

func (m *mockAuth) Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuth) Register(ctx context.Context, req service.RegisterRequest) (*model.User, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuth) InitAdmin(ctx context.Context) (*service.InitAdminResult, error) {
	return m.initAdminFn(ctx)
}

// mockInvites — мок InviteCodeAPI.
type mockInvites struct {
	validateFn func(ctx context.Context, code string) (*model.InviteCodeValidation, error)
	listFn     func(ctx context.Context) ([]*model.InviteCode, error)
	generateFn func(ctx context.Context, actor *model.User, req service.GenerateInviteCodeRequest) (*model.InviteCode, error)
}

func (m *mockInvites) Validate(ctx context.Context, code string) (*model.InviteCodeValidation, error) {
	return m.validateFn(ctx, code)
}

func (m *mockInvites) List(ctx context.Context) ([]*model.InviteCode, error) {
	return m.listFn(ctx)
}

func (m *mockInvites) Generate(ctx context.Context, actor *model.User, req service.GenerateInviteCodeRequest) (*model.InviteCode, error) {
	return m.generateFn(ctx, actor, req)
}

// mockProducts — мок ProductAPI.
type mockProducts struct {
	listFn   func(ctx context.Context) ([]*model.Product, error)
	getFn    func(ctx context.Context, id string) (*model.Product, error)
	createFn func(ctx context.Context, actor *model.User, data model.ProductData) (*model.Product, error)
	updateFn func(ctx context.Context, actor *model.User, id string, patch model.ProductPatch) (*model.Product, error)
	deleteFn func(ctx context.Context, actor *model.User, id string) error
}

func (m *mockProducts) List(ctx context.Context) ([]*model.Product, error) { return m.listFn(ctx) }

func (m *mockProducts) Get(ctx context.Context, id string) (*model.Product, error) {
	return m.getFn(ctx, id)
}

func (m *mockProducts) Create(ctx context.Context, actor *model.User, data model.ProductData) (*model.Product, error) {
	return m.createFn(ctx, actor, data)
}

func (m *mockProducts) Update(ctx context.Context, actor *model.User, id string, patch model.ProductPatch) (*model.Product, error) {
	return m.updateFn(ctx, actor, id, patch)
}

func (m *mockProducts) Delete(ctx context.Context, actor *model.User, id string) error {
	return m.deleteFn(ctx, actor, id)
}

// mockUsers — мок UserAPI.
type mockUsers struct {
	listFn        func(ctx context.Context) ([]*model.User, error)
	listPendingFn func(ctx context.Context) ([]*model.User, error)
	approveFn     func(ctx context.Context, actor *model.User, id string) error
}

func (m *mockUsers) List(ctx context.Context) ([]*model.User, error) { return m.listFn(ctx) }

func (m *mockUsers) ListPending(ctx context.Context) ([]*model.User, error) {
	return m.listPendingFn(ctx)
}

func (m *mockUsers) Approve(ctx context.Context, actor *model.User, id string) error {
	return m.approveFn(ctx, actor, id)
}

// mockAudit — мок AuditAPI.
type mockAudit struct {
	listFn func(ctx context.Context, entityType, entityID string) ([]*model.AuditLogEntry, error)
}

func (m *mockAudit) List(ctx context.Context, entityType, entityID string) ([]*model.AuditLogEntry, error) {
	return m.listFn(ctx, entityType, entityID)
}

// mockJWKS — мок JWKSProvider.
type mockJWKS struct {
	data json.RawMessage
	err  error
}

func (m *mockJWKS) JWKS(context.Context) (json.RawMessage, error) { return m.data, m.err }

// mockChecker — мок ReadinessChecker.
type mockChecker struct {
	status, message string
}

func (m *mockChecker) CheckReady() (string, string) { return m.status, m.message }

// mockDeps — мок DependencyReporter.
type mockDeps map[string]bool

func (m mockDeps) Health() map[string]bool { return m }
