package quality

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFieldsMapped ни одно логическое поле не сопоставлено с колонкой
	ErrNoFieldsMapped = errors.New("no logical field is mapped to a column")
	// ErrEmptyUpload в загруженном CSV нет даже строки заголовка
	ErrEmptyUpload = errors.New("uploaded table has no header row")
)

// ColumnNotFoundError колонка из FieldMapping отсутствует в таблице
type ColumnNotFoundError struct {
	Field     Field
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q mapped to %s not found; available columns: [%s]",
		e.Column, e.Field.Key(), strings.Join(e.Available, ", "))
}

// AnalysisError непредвиденный сбой внутри анализа, перехваченный на границе Analyze
type AnalysisError struct {
	Origin  string
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed in %s: %s", e.Origin, e.Message)
}

// IsConfigurationError сообщает, вызвана ли ошибка неверным сопоставлением колонок
func IsConfigurationError(err error) bool {
	var notFound *ColumnNotFoundError
	return errors.Is(err, ErrNoFieldsMapped) || errors.As(err, &notFound)
}
