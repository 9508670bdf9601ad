package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
	"github.com/bigkaa/pavian-registry/internal/repository"
)

// ProductService — CRUD оборудования PAVIAN с записью аудита.
// Одновременные правки одной записи: побеждает последняя.
type ProductService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewProductService создаёт сервис оборудования.
func NewProductService(store repository.Store, logger *slog.Logger) *ProductService {
	return &ProductService{
		store:  store,
		logger: logger.With(slog.String("component", "product_service")),
	}
}

// List возвращает все записи оборудования.
func (s *ProductService) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.store.Repos().Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список оборудования: %w", err)
	}
	return products, nil
}

// Get возвращает запись по ID.
func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: запись %s", ErrNotFound, id)
	}
	p, err := s.store.Repos().Products.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

// Count возвращает количество записей.
func (s *ProductService) Count(ctx context.Context) (int, error) {
	return s.store.Repos().Products.Count(ctx)
}

// validateProductData проверяет поля и нормализует список усилителей.
func validateProductData(d *model.ProductData) error {
	if d.Amplificadores == nil {
		d.Amplificadores = []model.Component{}
	}
	return validateStruct(d)
}

// Create создаёт запись оборудования от имени actor.
func (s *ProductService) Create(ctx context.Context, actor *model.User, data model.ProductData) (*model.Product, error) {
	if err := validateProductData(&data); err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:          uuid.New().String(),
		ProductData: data,
		CreatedBy:   actor.ID,
	}

	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := r.Products.Create(ctx, p); err != nil {
			return mapRepoErr(err)
		}
		return appendAudit(ctx, r, actor, model.EntityProduct, p.ID, model.ActionCreate,
			map[string]any{"tag": p.Tag, "num_pavian": p.NumPavian})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создана запись оборудования",
		slog.String("product_id", p.ID),
		slog.String("tag", p.Tag),
		slog.String("user_id", actor.ID),
	)
	return p, nil
}

// Update применяет частичное обновление: меняются только переданные поля.
func (s *ProductService) Update(ctx context.Context, actor *model.User, id string, patch model.ProductPatch) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: запись %s", ErrNotFound, id)
	}

	var updated *model.Product
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err)
		}

		changes, err := patch.ApplyTo(&p.ProductData)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := validateProductData(&p.ProductData); err != nil {
			return err
		}

		if err := r.Products.Update(ctx, p); err != nil {
			return mapRepoErr(err)
		}
		changes["updated_at"] = p.UpdatedAt

		if err := appendAudit(ctx, r, actor, model.EntityProduct, p.ID, model.ActionUpdate, changes); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Обновлена запись оборудования",
		slog.String("product_id", id),
		slog.Int("fields", len(patch)),
		slog.String("user_id", actor.ID),
	)
	return updated, nil
}

// Delete удаляет запись оборудования от имени actor.
func (s *ProductService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: запись %s", ErrNotFound, id)
	}

	err := s.store.InTx(ctx, func(r repository.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err)
		}
		if err := r.Products.Delete(ctx, id); err != nil {
			return mapRepoErr(err)
		}
		return appendAudit(ctx, r, actor, model.EntityProduct, id, model.ActionDelete,
			map[string]any{"tag": p.Tag})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Удалена запись оборудования",
		slog.String("product_id", id),
		slog.String("user_id", actor.ID),
	)
	return nil
}
