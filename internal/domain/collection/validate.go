package collection

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Mode определяет, проверяется ли запись целиком или только присланные поля.
type Mode int

const (
	// Full - создание: обязательные поля должны присутствовать.
	Full Mode = iota
	// Partial - обновление: проверяются только поля из патча.
	Partial
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

var patterns sync.Map // string -> *regexp.Regexp

// Validate проверяет данные записи по схеме коллекции.
// Поля, не описанные в схеме, пропускаются без проверки.
func Validate(name string, data map[string]any, mode Mode) error {
	spec, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return spec.Validate(data, mode)
}

// Validate проверяет data по полям коллекции.
func (s Spec) Validate(data map[string]any, mode Mode) error {
	var issues []FieldError
	for _, f := range s.Fields {
		v, present := data[f.Name]
		if !present {
			if mode == Full && f.Required {
				issues = append(issues, FieldError{Field: f.Name, Reason: "is required"})
			}
			continue
		}
		if reason := f.check(v); reason != "" {
			issues = append(issues, FieldError{Field: f.Name, Reason: reason})
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Collection: s.Name, Fields: issues}
	}
	return nil
}

func (f Field) check(v any) string {
	if v == nil {
		if f.Nullable && !f.Required {
			return ""
		}
		return "must not be null"
	}

	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		return f.checkString(s)
	case KindNumber:
		n, ok := toFloat(v)
		if !ok {
			return "must be a number"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("must be >= %g", *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("must be <= %g", *f.Max)
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return "must be a boolean"
		}
	case KindTime:
		switch t := v.(type) {
		case time.Time:
		case string:
			if !parseTime(t) {
				return "must be a date (RFC 3339 or YYYY-MM-DD)"
			}
		default:
			return "must be a date"
		}
	case KindID:
		s, ok := v.(string)
		if !ok {
			return "must be an id string"
		}
		if _, err := uuid.Parse(s); err != nil {
			return "must be a valid id"
		}
	case KindStringList, KindIDList:
		items, ok := toList(v)
		if !ok {
			return "must be a list"
		}
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Sprintf("item %d must be a string", i)
			}
			if f.Kind == KindIDList {
				if _, err := uuid.Parse(s); err != nil {
					return fmt.Sprintf("item %d must be a valid id", i)
				}
				continue
			}
			if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
				return fmt.Sprintf("item %d exceeds %d characters", i, f.MaxLen)
			}
		}
	case KindList:
		if _, ok := toList(v); !ok {
			return "must be a list"
		}
	case KindObject:
		if _, ok := v.(map[string]any); !ok {
			return "must be an object"
		}
	}
	return ""
}

func (f Field) checkString(s string) string {
	if f.Required && s == "" {
		return "must not be empty"
	}
	if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
		return fmt.Sprintf("exceeds %d characters", f.MaxLen)
	}
	if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
		return fmt.Sprintf("must be one of %v", f.Enum)
	}
	if f.Pattern != "" && s != "" && !compiled(f.Pattern).MatchString(s) {
		return "has invalid format"
	}
	return ""
}

func compiled(pattern string) *regexp.Regexp {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(pattern)
	patterns.Store(pattern, re)
	return re
}

func parseTime(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
