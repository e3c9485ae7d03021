package engine

import (
	"fmt"
	"strconv"
)

// ValueKind — вид материализованного значения.
type ValueKind int

// Виды значений контекста выполнения.
const (
	// ValueTable — упорядоченный список строк.
	ValueTable ValueKind = iota

	// ValueScalar — строка, число или булево.
	ValueScalar

	// ValueStructured — вложенный объект, результат эффектного
	// оператора; допускает навигацию точечным путём.
	ValueStructured
)

// Row — одна строка таблицы. Порядок колонок не значим.
type Row map[string]any

// Table — упорядоченный список строк.
type Table []Row

// Value — материализованное значение контекста выполнения:
// Table, Scalar или Structured.
type Value struct {
	Kind       ValueKind
	Table      Table
	Scalar     any
	Structured map[string]any
}

// NewTable оборачивает таблицу в Value.
func NewTable(t Table) Value {
	return Value{Kind: ValueTable, Table: t}
}

// NewScalar оборачивает скаляр в Value.
func NewScalar(v any) Value {
	return Value{Kind: ValueScalar, Scalar: v}
}

// NewStructured оборачивает объект в Value.
func NewStructured(m map[string]any) Value {
	return Value{Kind: ValueStructured, Structured: m}
}

// Any возвращает значение в развёрнутом виде для передачи наружу.
func (v Value) Any() any {
	switch v.Kind {
	case ValueTable:
		rows := make([]map[string]any, len(v.Table))
		for i, r := range v.Table {
			rows[i] = r
		}
		return rows
	case ValueStructured:
		return v.Structured
	default:
		return v.Scalar
	}
}

// At спускается по сегментам пути внутрь значения.
//
// Путь не включает головной сегмент: он уже разрешён в само значение.
// Пустой путь возвращает значение как есть.
func (v Value) At(path []string) (any, error) {
	var cur any
	switch v.Kind {
	case ValueStructured:
		cur = v.Structured
	case ValueScalar:
		cur = v.Scalar
	case ValueTable:
		cur = v.Any()
	}

	for i, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("segment %q: value at %v is not an object", seg, path[:i])
		}
		next, ok := m[seg]
		if !ok {
			return nil, fmt.Errorf("segment %q: no such field", seg)
		}
		cur = next
	}
	return cur, nil
}

// numeric пытается привести значение ячейки к числу.
func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringify приводит значение-лист к тексту.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
