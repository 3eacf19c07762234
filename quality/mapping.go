package quality

// FieldMapping сопоставление логических полей с колонками таблицы.
// Пустое имя колонки означает, что поле не используется.
type FieldMapping struct {
	CustomerName string `json:"customer_name,omitempty" yaml:"customer_name,omitempty"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
	City         string `json:"city,omitempty" yaml:"city,omitempty"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty"`
	TPI          string `json:"tpi,omitempty" yaml:"tpi,omitempty"`
}

// Column имя колонки для поля или ""
func (m FieldMapping) Column(f Field) string {
	switch f {
	case FieldName:
		return m.CustomerName
	case FieldAddress:
		return m.Address
	case FieldCity:
		return m.City
	case FieldCountry:
		return m.Country
	case FieldTPI:
		return m.TPI
	default:
		return ""
	}
}

// Mapped сопоставлено ли поле с колонкой
func (m FieldMapping) Mapped(f Field) bool {
	return m.Column(f) != ""
}

// Validate проверяет, что сопоставлено хотя бы одно поле и все колонки существуют
func (m FieldMapping) Validate(columns []string) error {
	known := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		known[column] = struct{}{}
	}

	mapped := 0
	for _, f := range AllFields {
		column := m.Column(f)
		if column == "" {
			continue
		}
		mapped++
		if _, ok := known[column]; !ok {
			available := make([]string, len(columns))
			copy(available, columns)
			return &ColumnNotFoundError{Field: f, Column: column, Available: available}
		}
	}

	if mapped == 0 {
		return ErrNoFieldsMapped
	}
	return nil
}

// AsMap только сопоставленные поля: логическое имя -> колонка
func (m FieldMapping) AsMap() map[string]string {
	result := make(map[string]string)
	for _, f := range AllFields {
		if column := m.Column(f); column != "" {
			result[f.Key()] = column
		}
	}
	return result
}

// FieldMappingFromMap строит сопоставление из пар "логическое имя -> колонка"
func FieldMappingFromMap(values map[string]string) FieldMapping {
	var m FieldMapping
	m.CustomerName = values[FieldName.Key()]
	m.Address = values[FieldAddress.Key()]
	m.City = values[FieldCity.Key()]
	m.Country = values[FieldCountry.Key()]
	m.TPI = values[FieldTPI.Key()]
	return m
}
