package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MaxAmplifiers — число слотов усилителей в оборудовании PAVIAN.
const MaxAmplifiers = 10

// ModelType — модель установленного компонента.
type ModelType string

const (
	ModelType1 ModelType = "modelo_1"
	ModelType2 ModelType = "modelo_2"
)

// Valid проверяет, что модель входит в допустимый набор.
func (m ModelType) Valid() bool {
	return m == ModelType1 || m == ModelType2
}

// Label — человекочитаемое название модели.
func (m ModelType) Label() string {
	switch m {
	case ModelType1:
		return "Modelo 1"
	case ModelType2:
		return "Modelo 2"
	default:
		return string(m)
	}
}

// Component — слот компонента оборудования: либо не установлен,
// либо установлен с моделью и серийным номером.
// Нулевое значение — не установлен.
type Component struct {
	installed    bool
	modelType    ModelType
	serialNumber string
}

// Absent возвращает пустой слот.
func Absent() Component {
	return Component{}
}

// Installed возвращает слот с установленным компонентом.
func Installed(modelType ModelType, serialNumber string) (Component, error) {
	if !modelType.Valid() {
		return Component{}, fmt.Errorf("недопустимая модель компонента %q", modelType)
	}
	return Component{installed: true, modelType: modelType, serialNumber: serialNumber}, nil
}

// IsInstalled — установлен ли компонент.
func (c Component) IsInstalled() bool { return c.installed }

// ModelType возвращает модель; пусто для неустановленного компонента.
func (c Component) ModelType() ModelType { return c.modelType }

// SerialNumber возвращает серийный номер; пусто для неустановленного компонента.
func (c Component) SerialNumber() string { return c.serialNumber }

// componentJSON — формат компонента на проводе.
type componentJSON struct {
	HasComponent bool       `json:"has_component"`
	ModelType    *ModelType `json:"model_type"`
	SerialNumber *string    `json:"serial_number"`
}

// MarshalJSON кодирует компонент в {has_component, model_type, serial_number}.
func (c Component) MarshalJSON() ([]byte, error) {
	out := componentJSON{HasComponent: c.installed}
	if c.installed {
		mt, sn := c.modelType, c.serialNumber
		out.ModelType = &mt
		out.SerialNumber = &sn
	}
	return json.Marshal(out)
}

// UnmarshalJSON разбирает компонент. has_component=false (или null)
// даёт пустой слот независимо от остальных полей.
func (c *Component) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Absent()
		return nil
	}

	var in componentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.HasComponent {
		*c = Absent()
		return nil
	}

	var mt ModelType
	if in.ModelType != nil {
		mt = *in.ModelType
	}
	var sn string
	if in.SerialNumber != nil {
		sn = *in.SerialNumber
	}

	installed, err := Installed(mt, sn)
	if err != nil {
		return err
	}
	*c = installed
	return nil
}

// ProductData — редактируемые поля оборудования PAVIAN.
// Поля без omitempty: PATCH-логика опирается на полный набор ключей.
type ProductData struct {
	// Идентификация
	Tag       string `json:"tag" validate:"required"`
	NumPavian string `json:"num_pavian" validate:"required"`

	// Даты (строки в формате, введённом пользователем)
	DataInstalacao         *string `json:"data_instalacao"`
	DataAtualizacao        *string `json:"data_atualizacao"`
	DataVencimentoGarantia *string `json:"data_vencimento_garantia"`

	// Модель и конфигурация
	ModeloPavian            string `json:"modelo_pavian"`
	PotenciaPavianExistente string `json:"potencia_pavian_existente"`
	SituacaoProposta        string `json:"situacao_proposta"`
	StatusImplantacao       string `json:"status_implantacao"`

	// Расположение
	Regiao             string  `json:"regiao"`
	Complexo           string  `json:"complexo"`
	Latitude           *string `json:"latitude" validate:"omitempty,latitude"`
	Longitude          *string `json:"longitude" validate:"omitempty,longitude"`
	ConfigTipoMontagem string  `json:"config_tipo_montagem"`
	Azimute            *string `json:"azimute"`

	// Ретрансляторы
	RepetidoraAPrincipal  string `json:"repetidora_a_principal"`
	RepetidoraBRedundante string `json:"repetidora_b_redundante"`

	// Прошивка и настройки
	FirmwareRadio     string `json:"firmware_radio"`
	TipoMelodia       string `json:"tipo_melodia"`
	PrioridadeAlarmes string `json:"prioridade_alarmes"`

	// Каналы
	IDCanalPrimario   string `json:"id_canal_primario"`
	IDCanalSecundario string `json:"id_canal_secundario"`

	// Радиомодули
	SerialRadioPrimario   string `json:"serial_radio_primario"`
	ModeloRadioPrimario   string `json:"modelo_radio_primario"`
	SerialRadioSecundario string `json:"serial_radio_secundario"`
	ModeloRadioSecundario string `json:"modelo_radio_secundario"`

	// Конвертеры
	SerialConvPrimario   string `json:"serial_conv_primario"`
	SerialConvSecundario string `json:"serial_conv_secundario"`

	// Компоненты
	FirmwarePlacaMae           string      `json:"firmware_placa_mae"`
	PlacaMae                   Component   `json:"placa_mae"`
	Fonte                      Component   `json:"fonte"`
	PlacaComunicacaoPrimaria   Component   `json:"placa_comunicacao_primaria"`
	PlacaComunicacaoSecundaria Component   `json:"placa_comunicacao_secundaria"`
	Amplificadores             []Component `json:"amplificadores" validate:"max=10"`

	Observacoes *string `json:"observacoes"`
}

// Coordinates возвращает координаты, если заданы обе.
func (d *ProductData) Coordinates() (lat, lng string, ok bool) {
	if d.Latitude == nil || d.Longitude == nil || *d.Latitude == "" || *d.Longitude == "" {
		return "", "", false
	}
	return *d.Latitude, *d.Longitude, true
}

// NamedComponents возвращает четыре именованных слота в порядке отображения.
func (d *ProductData) NamedComponents() []NamedComponent {
	return []NamedComponent{
		{Label: "Placa Mãe", Component: d.PlacaMae},
		{Label: "Fonte", Component: d.Fonte},
		{Label: "Placa Comunicação Primária", Component: d.PlacaComunicacaoPrimaria},
		{Label: "Placa Comunicação Secundária", Component: d.PlacaComunicacaoSecundaria},
	}
}

// NamedComponent — компонент с подписью для отображения.
type NamedComponent struct {
	Label     string
	Component Component
}

// Product — запись оборудования PAVIAN.
type Product struct {
	ID string `json:"id"`
	ProductData
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductPatch — частичное обновление: ключ → новое JSON-значение.
// Значения null и неизвестные ключи игнорируются.
type ProductPatch map[string]json.RawMessage

// ApplyTo применяет патч к данным и возвращает фактически изменённые
// поля (для журнала аудита). При ошибке d не меняется.
func (p ProductPatch) ApplyTo(d *ProductData) (map[string]any, error) {
	current, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("сериализация продукта: %w", err)
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(current, &merged); err != nil {
		return nil, fmt.Errorf("разбор продукта: %w", err)
	}

	changes := make(map[string]any)
	for key, raw := range p {
		if _, known := merged[key]; !known {
			continue
		}
		if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		merged[key] = raw

		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("поле %s: %w", key, err)
		}
		changes[key] = v
	}

	buf, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("сериализация патча: %w", err)
	}
	var next ProductData
	if err := json.Unmarshal(buf, &next); err != nil {
		return nil, fmt.Errorf("некорректные значения патча: %w", err)
	}

	*d = next
	return changes, nil
}
