package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/pavian-registry/internal/config"
	"github.com/bigkaa/pavian-registry/internal/database"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("pavian_test"),
		postgres.WithUsername("pavian"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("PR_DB_HOST", host)
	t.Setenv("PR_DB_PORT", port.Port())
	t.Setenv("PR_DB_NAME", "pavian_test")
	t.Setenv("PR_DB_USER", "pavian")
	t.Setenv("PR_DB_PASSWORD", "test-password")
	t.Setenv("PR_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newUser(email, role string) *model.User {
	return &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Test " + role,
		Role:         role,
		PasswordHash: "$2a$10$hash",
	}
}

// --- Тесты UserRepository ---

func TestUserRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	admin := newUser("admin@example.com", "admin")
	admin.Approved = true
	if err := repo.Create(ctx, admin); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if admin.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	dup := newUser("admin@example.com", "user")
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата email = %v, ожидали ErrConflict", err)
	}

	pending := newUser("pending@example.com", "editor")
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "pending@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() ошибка: %v", err)
	}
	if got.ID != pending.ID || got.PasswordHash == "" {
		t.Errorf("GetByEmail() = %+v", got)
	}

	notApproved := false
	list, err := repo.List(ctx, &notApproved)
	if err != nil {
		t.Fatalf("List(pending) ошибка: %v", err)
	}
	if len(list) != 1 || list[0].ID != pending.ID {
		t.Errorf("List(pending) = %d записей", len(list))
	}

	if err := repo.Approve(ctx, pending.ID, admin.ID); err != nil {
		t.Fatalf("Approve() ошибка: %v", err)
	}
	got, err = repo.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if !got.Approved || got.ApprovedBy == nil || *got.ApprovedBy != admin.ID {
		t.Errorf("после Approve() = %+v", got)
	}

	if err := repo.Approve(ctx, uuid.New().String(), admin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Approve() несуществующего = %v, ожидали ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() несуществующего = %v, ожидали ErrNotFound", err)
	}

	exists, err := repo.ExistsWithRole(ctx, "admin")
	if err != nil || !exists {
		t.Errorf("ExistsWithRole(admin) = %v, %v", exists, err)
	}
}

// --- Тесты InviteCodeRepository ---

func TestInviteCodeRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	codes := NewInviteCodeRepository(pool)
	store := NewStore(pool)

	admin := newUser("admin@example.com", "admin")
	if err := users.Create(ctx, admin); err != nil {
		t.Fatalf("Create(user) ошибка: %v", err)
	}

	code := &model.InviteCode{
		Code:         "ABCDEFGH1234",
		CreatedBy:    admin.ID,
		RoleAssigned: "editor",
		ExpiresAt:    time.Now().Add(time.Hour),
		MaxUses:      2,
	}
	if err := codes.Create(ctx, code); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if err := codes.Create(ctx, code); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата = %v, ожидали ErrConflict", err)
	}

	user := newUser("u@example.com", "editor")
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create(user) ошибка: %v", err)
	}

	// Ошибка внутри InTx откатывает MarkUsed.
	errAbort := errors.New("abort")
	err := store.InTx(ctx, func(r Repos) error {
		if err := r.InviteCodes.MarkUsed(ctx, code.Code, user.ID); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("InTx() = %v, ожидали errAbort", err)
	}
	if got, _ := codes.Get(ctx, code.Code); got == nil || got.UsedCount != 0 {
		t.Fatalf("после отката used_count = %+v, ожидали 0", got)
	}

	err = store.InTx(ctx, func(r Repos) error {
		c, err := r.InviteCodes.GetForUpdate(ctx, code.Code)
		if err != nil {
			return err
		}
		if !c.Usable(time.Now()) {
			t.Error("код должен быть пригоден")
		}
		return r.InviteCodes.MarkUsed(ctx, code.Code, user.ID)
	})
	if err != nil {
		t.Fatalf("InTx() ошибка: %v", err)
	}

	got, err := codes.Get(ctx, code.Code)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if got.UsedCount != 1 || len(got.UsedBy) != 1 || got.UsedBy[0] != user.ID {
		t.Errorf("после MarkUsed() = %+v", got)
	}
	if got.CreatedBy != admin.ID {
		t.Errorf("CreatedBy = %q, ожидали %q", got.CreatedBy, admin.ID)
	}

	list, err := codes.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %d, %v", len(list), err)
	}

	if _, err := codes.Get(ctx, "nope-nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() несуществующего = %v, ожидали ErrNotFound", err)
	}
}

// --- Тесты ProductRepository ---

func TestProductRepository_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)

	lat, lng := "-23.550520", "-46.633308"
	pm, _ := model.Installed(model.ModelType1, "PM-001")
	amp, _ := model.Installed(model.ModelType2, "AMP-7")

	p := &model.Product{
		ID: uuid.New().String(),
		ProductData: model.ProductData{
			Tag:            "TAG-100",
			NumPavian:      "PV-100",
			ModeloPavian:   "Pavian X",
			Regiao:         "Sudeste",
			Complexo:       "Complexo A",
			Latitude:       &lat,
			Longitude:      &lng,
			PlacaMae:       pm,
			Fonte:          model.Absent(),
			Amplificadores: []model.Component{amp, model.Absent()},
		},
		CreatedBy: uuid.New().String(),
	}

	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Tag != p.Tag || got.NumPavian != p.NumPavian || got.Regiao != p.Regiao {
		t.Errorf("скалярные поля не совпадают: %+v", got.ProductData)
	}
	if got.Latitude == nil || *got.Latitude != lat || got.Longitude == nil || *got.Longitude != lng {
		t.Errorf("координаты не совпадают: %v, %v", got.Latitude, got.Longitude)
	}
	if got.DataInstalacao != nil {
		t.Errorf("DataInstalacao = %v, ожидали nil", got.DataInstalacao)
	}
	if !got.PlacaMae.IsInstalled() || got.PlacaMae.SerialNumber() != "PM-001" {
		t.Errorf("PlacaMae = %+v", got.PlacaMae)
	}
	if got.Fonte.IsInstalled() {
		t.Error("Fonte должна быть не установлена")
	}
	if len(got.Amplificadores) != 2 || got.Amplificadores[0].ModelType() != model.ModelType2 {
		t.Errorf("Amplificadores = %+v", got.Amplificadores)
	}

	got.Regiao = "Norte"
	before := got.UpdatedAt
	time.Sleep(10 * time.Millisecond)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if !got.UpdatedAt.After(before) {
		t.Error("UpdatedAt не обновлён")
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 1 {
		t.Errorf("Count() = %d, %v", count, err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v, ожидали ErrNotFound", err)
	}
}

// --- Тесты AuditLogRepository ---

func TestAuditLogRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewAuditLogRepository(pool)
	performer := uuid.New().String()

	entries := []*model.AuditLogEntry{
		{EntityType: model.EntityProduct, EntityID: "p-1", Action: model.ActionCreate, Changes: map[string]any{"tag": "T1"}},
		{EntityType: model.EntityUser, EntityID: "u-1", Action: model.ActionApprove, Changes: map[string]any{"approved": true}},
		{EntityType: model.EntityProduct, EntityID: "p-1", Action: model.ActionDelete},
	}
	for _, e := range entries {
		e.ID = uuid.New().String()
		e.PerformedBy = performer
		e.UserName = "Admin"
		e.UserEmail = "admin@example.com"
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append() ошибка: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	all, err := repo.List(ctx, AuditLogFilter{})
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() = %d записей, ожидали 3", len(all))
	}
	if all[0].Action != model.ActionDelete {
		t.Errorf("первая запись = %q, ожидали самую новую (delete)", all[0].Action)
	}

	products, err := repo.List(ctx, AuditLogFilter{EntityType: model.EntityProduct, EntityID: "p-1"})
	if err != nil {
		t.Fatalf("List(product) ошибка: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("List(product) = %d записей, ожидали 2", len(products))
	}
	if products[1].Changes["tag"] != "T1" {
		t.Errorf("Changes = %v", products[1].Changes)
	}
}
