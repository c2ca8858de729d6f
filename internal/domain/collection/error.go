package collection

import (
	"errors"
	"fmt"
	"strings"

	"greenkeep/internal/domain/record"
)

var ErrUnknownCollection = errors.New("unknown collection")

// FieldError - нарушение правила для конкретного поля.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Reason
}

// ValidationError собирает все нарушения по одной записи.
type ValidationError struct {
	Collection string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s", e.Collection, strings.Join(parts, "; "))
}

// Unwrap позволяет проверять ошибку через errors.Is(err, record.ErrInvalidData).
func (e *ValidationError) Unwrap() error {
	return record.ErrInvalidData
}
