package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// ProductRepository — интерфейс CRUD для таблицы products.
type ProductRepository interface {
	// Create сохраняет новую запись оборудования.
	Create(ctx context.Context, p *model.Product) error
	// GetByID возвращает запись по UUID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// GetForUpdate возвращает запись с блокировкой строки (только внутри транзакции).
	GetForUpdate(ctx context.Context, id string) (*model.Product, error)
	// List возвращает все записи, новые первыми.
	List(ctx context.Context) ([]*model.Product, error)
	// Update перезаписывает редактируемые поля и updated_at.
	Update(ctx context.Context, p *model.Product) error
	// Delete удаляет запись.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество записей.
	Count(ctx context.Context) (int, error)
}

// productRepo — реализация ProductRepository.
type productRepo struct {
	db DBTX
}

// NewProductRepository создаёт репозиторий оборудования.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

// productDataColumns — редактируемые колонки в порядке productDataArgs.
const productDataColumns = `tag, num_pavian, data_instalacao, data_atualizacao, data_vencimento_garantia,
	modelo_pavian, potencia_pavian_existente, situacao_proposta, status_implantacao,
	regiao, complexo, latitude, longitude, config_tipo_montagem, azimute,
	repetidora_a_principal, repetidora_b_redundante, firmware_radio, tipo_melodia, prioridade_alarmes,
	id_canal_primario, id_canal_secundario,
	serial_radio_primario, modelo_radio_primario, serial_radio_secundario, modelo_radio_secundario,
	serial_conv_primario, serial_conv_secundario,
	firmware_placa_mae, placa_mae, fonte, placa_comunicacao_primaria, placa_comunicacao_secundaria,
	amplificadores, observacoes`

// productDataCount — число колонок в productDataColumns.
const productDataCount = 35

const productColumns = `id, ` + productDataColumns + `, created_by, created_at, updated_at`

// productDataArgs возвращает значения редактируемых колонок.
func productDataArgs(d *model.ProductData) []any {
	amps := d.Amplificadores
	if amps == nil {
		amps = []model.Component{}
	}
	return []any{
		d.Tag, d.NumPavian, d.DataInstalacao, d.DataAtualizacao, d.DataVencimentoGarantia,
		d.ModeloPavian, d.PotenciaPavianExistente, d.SituacaoProposta, d.StatusImplantacao,
		d.Regiao, d.Complexo, d.Latitude, d.Longitude, d.ConfigTipoMontagem, d.Azimute,
		d.RepetidoraAPrincipal, d.RepetidoraBRedundante, d.FirmwareRadio, d.TipoMelodia, d.PrioridadeAlarmes,
		d.IDCanalPrimario, d.IDCanalSecundario,
		d.SerialRadioPrimario, d.ModeloRadioPrimario, d.SerialRadioSecundario, d.ModeloRadioSecundario,
		d.SerialConvPrimario, d.SerialConvSecundario,
		d.FirmwarePlacaMae, d.PlacaMae, d.Fonte, d.PlacaComunicacaoPrimaria, d.PlacaComunicacaoSecundaria,
		amps, d.Observacoes,
	}
}

// scanProduct сканирует строку результата в модель Product.
func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	d := &p.ProductData
	err := row.Scan(
		&p.ID,
		&d.Tag, &d.NumPavian, &d.DataInstalacao, &d.DataAtualizacao, &d.DataVencimentoGarantia,
		&d.ModeloPavian, &d.PotenciaPavianExistente, &d.SituacaoProposta, &d.StatusImplantacao,
		&d.Regiao, &d.Complexo, &d.Latitude, &d.Longitude, &d.ConfigTipoMontagem, &d.Azimute,
		&d.RepetidoraAPrincipal, &d.RepetidoraBRedundante, &d.FirmwareRadio, &d.TipoMelodia, &d.PrioridadeAlarmes,
		&d.IDCanalPrimario, &d.IDCanalSecundario,
		&d.SerialRadioPrimario, &d.ModeloRadioPrimario, &d.SerialRadioSecundario, &d.ModeloRadioSecundario,
		&d.SerialConvPrimario, &d.SerialConvSecundario,
		&d.FirmwarePlacaMae, &d.PlacaMae, &d.Fonte, &d.PlacaComunicacaoPrimaria, &d.PlacaComunicacaoSecundaria,
		&d.Amplificadores, &d.Observacoes,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// placeholders возвращает "$from, $from+1, ..." для n параметров.
func placeholders(from, n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("$%d", from+i)
	}
	return s
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := fmt.Sprintf(`
		INSERT INTO products (id, created_by, %s)
		VALUES ($1, $2, %s)
		RETURNING created_at, updated_at`, productDataColumns, placeholders(3, productDataCount))

	args := append([]any{p.ID, p.CreatedBy}, productDataArgs(&p.ProductData)...)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: запись оборудования %s уже существует", ErrConflict, p.ID)
		}
		return fmt.Errorf("ошибка создания записи оборудования: %w", err)
	}
	return nil
}

func (r *productRepo) get(ctx context.Context, id, suffix string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 %s`, productColumns, suffix)
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи оборудования: %w", err)
	}
	return p, nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return r.get(ctx, id, "")
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*model.Product, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *productRepo) List(ctx context.Context) ([]*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи оборудования: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	query := fmt.Sprintf(`
		UPDATE products
		SET (%s, updated_at) = (%s, NOW())
		WHERE id = $1
		RETURNING updated_at`, productDataColumns, placeholders(2, productDataCount))

	args := append([]any{p.ID}, productDataArgs(&p.ProductData)...)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления записи оборудования: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи оборудования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}
	return count, nil
}
