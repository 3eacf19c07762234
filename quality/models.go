package quality

// Field логическое поле записи контрагента
type Field int

const (
	FieldName Field = iota
	FieldAddress
	FieldCity
	FieldCountry
	FieldTPI
	fieldCount
)

// AllFields все логические поля в порядке приоритета
var AllFields = []Field{FieldName, FieldAddress, FieldCity, FieldCountry, FieldTPI}

// String короткое имя поля, используется в MatchMethod ("name_token_set")
func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldAddress:
		return "address"
	case FieldCity:
		return "city"
	case FieldCountry:
		return "country"
	case FieldTPI:
		return "tpi"
	default:
		return "unknown"
	}
}

// Key имя поля во внешней схеме (column_map)
func (f Field) Key() string {
	if f == FieldName {
		return "customer_name"
	}
	return f.String()
}

// FieldValues значения логических полей одной строки
type FieldValues struct {
	CustomerName string `json:"customer_name" yaml:"customer_name"`
	Address      string `json:"address" yaml:"address"`
	City         string `json:"city" yaml:"city"`
	Country      string `json:"country" yaml:"country"`
	TPI          string `json:"tpi" yaml:"tpi"`
}

// Get возвращает значение поля
func (v FieldValues) Get(f Field) string {
	switch f {
	case FieldName:
		return v.CustomerName
	case FieldAddress:
		return v.Address
	case FieldCity:
		return v.City
	case FieldCountry:
		return v.Country
	case FieldTPI:
		return v.TPI
	default:
		return ""
	}
}

// Set устанавливает значение поля
func (v *FieldValues) Set(f Field, value string) {
	switch f {
	case FieldName:
		v.CustomerName = value
	case FieldAddress:
		v.Address = value
	case FieldCity:
		v.City = value
	case FieldCountry:
		v.Country = value
	case FieldTPI:
		v.TPI = value
	}
}

// Record строка исходной таблицы с сырыми и нормализованными значениями
type Record struct {
	Position   int
	Raw        FieldValues
	Normalized FieldValues
}

// ExcelRow номер строки как в таблице: позиция + 1 (с единицы) + 1 (заголовок)
func (r Record) ExcelRow() int {
	return ExcelRow(r.Position)
}

// ExcelRow переводит 0-based позицию в номер строки электронной таблицы
func ExcelRow(position int) int {
	return position + 2
}

// ScoreSet оценки пяти метрик сходства, каждая в диапазоне 0..100
type ScoreSet struct {
	TokenSet    int `json:"token_set"`
	TokenSort   int `json:"token_sort"`
	Partial     int `json:"partial"`
	JaroWinkler int `json:"jaro_winkler"`
	Phonetic    int `json:"phonetic"`
}

// Названия метрик в порядке разрешения ничьих
const (
	MetricTokenSet    = "token_set"
	MetricTokenSort   = "token_sort"
	MetricPartial     = "partial"
	MetricJaroWinkler = "jaro_winkler"
	MetricPhonetic    = "phonetic"
)

// BlockTypeNameCity тип блока: префикс имени + первая буква города
const BlockTypeNameCity = "name_city"

// DuplicateRecord найденный дубликат, принадлежит ровно одному MasterRecord.
// После создания не изменяется.
type DuplicateRecord struct {
	UID      string `json:"uid" yaml:"uid"`
	ExcelRow int    `json:"ExcelRow" yaml:"ExcelRow"`
	FieldValues `yaml:",inline"`

	NameScore       int    `json:"Name_score" yaml:"Name_score"`
	AddressScore    int    `json:"Address_score" yaml:"Address_score"`
	CityScore       int    `json:"City_score" yaml:"City_score"`
	CountryScore    int    `json:"Country_score" yaml:"Country_score"`
	TPIScore        int    `json:"TPI_score" yaml:"TPI_score"`
	OverallScore    int    `json:"Overall_score" yaml:"Overall_score"`
	IsLowConfidence bool   `json:"IsLowConfidence" yaml:"IsLowConfidence"`
	BlockType       string `json:"BlockType" yaml:"BlockType"`
	BlockKey        string `json:"BlockKey" yaml:"BlockKey"`
	MatchMethod     string `json:"MatchMethod" yaml:"MatchMethod"`
}

// MasterRecord якорная запись кластера и ее дубликаты
type MasterRecord struct {
	MasterUID   string `json:"master_uid" yaml:"master_uid"`
	ExcelRow    int    `json:"ExcelRow" yaml:"ExcelRow"`
	FieldValues `yaml:",inline"`

	Duplicates           []*DuplicateRecord `json:"duplicates" yaml:"duplicates"`
	DuplicateCount       int                `json:"DuplicateCount" yaml:"DuplicateCount"`
	AvgSimilarity        int                `json:"AvgSimilarity" yaml:"AvgSimilarity"`
	IsLowConfidenceGroup bool               `json:"IsLowConfidenceGroup" yaml:"IsLowConfidenceGroup"`

	position int
}

// Position 0-based позиция якорной записи
func (m *MasterRecord) Position() int {
	return m.position
}

// BlockStats статистика блокирования, на оценки не влияет
type BlockStats struct {
	TotalBlocks         int     `json:"total_blocks" yaml:"total_blocks"`
	MaxBlockSize        int     `json:"max_block_size" yaml:"max_block_size"`
	AvgBlockSize        float64 `json:"avg_block_size" yaml:"avg_block_size"`
	TotalRecordsBlocked int     `json:"total_records_blocked" yaml:"total_records_blocked"`
	SingletonBlocks     int     `json:"singleton_blocks" yaml:"singleton_blocks"`
	CandidatePairs      int     `json:"candidate_pairs" yaml:"candidate_pairs"`
}
