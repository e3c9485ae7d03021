package vvm

import (
	"fmt"
	"strconv"
)

// Kind — вид значения регистра.
type Kind int

// Виды значений.
const (
	// KindInt — целое.
	KindInt Kind = iota

	// KindFloat — вещественное.
	KindFloat

	// KindBool — булево.
	KindBool
)

// String возвращает имя вида.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value — значение одного регистра: целое, вещественное или булево.
// Нулевое Value — целый ноль, значение несозданного регистра.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
}

// IntValue создаёт целое значение.
func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// FloatValue создаёт вещественное значение.
func FloatValue(v float64) Value {
	return Value{Kind: KindFloat, Float: v}
}

// BoolValue создаёт булево значение.
func BoolValue(v bool) Value {
	return Value{Kind: KindBool, Bool: v}
}

// Truthy — истинность значения для JIF: ненулевое число или true.
// Правило явное, на динамическую истинность языка не полагаемся.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	default:
		return v.Bool
	}
}

// String возвращает текстовое представление значения.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return strconv.FormatBool(v.Bool)
	}
}

// add складывает два значения. Булевы операнды в арифметике запрещены;
// целое с вещественным даёт вещественное.
func (v Value) add(o Value) (Value, error) {
	if v.Kind == KindBool || o.Kind == KindBool {
		return Value{}, fmt.Errorf("ADD: boolean operand (%s + %s)", v.Kind, o.Kind)
	}
	if v.Kind == KindFloat || o.Kind == KindFloat {
		return FloatValue(v.asFloat() + o.asFloat()), nil
	}
	return IntValue(v.Int + o.Int), nil
}

// less сравнивает два значения для CMPLT. Булевы операнды запрещены;
// смешанное сравнение идёт в вещественных числах.
func (v Value) less(o Value) (bool, error) {
	if v.Kind == KindBool || o.Kind == KindBool {
		return false, fmt.Errorf("CMPLT: boolean operand (%s < %s)", v.Kind, o.Kind)
	}
	if v.Kind == KindFloat || o.Kind == KindFloat {
		return v.asFloat() < o.asFloat(), nil
	}
	return v.Int < o.Int, nil
}

func (v Value) asFloat() float64 {
	if v.Kind == KindFloat {
		return v.Float
	}
	return float64(v.Int)
}
