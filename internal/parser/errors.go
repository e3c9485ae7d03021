package parser

import (
	"errors"
	"fmt"
)

// Ошибки разбора документа FLOW.
var (
	// ErrNoHeader — документ не начинается с FLOW "<имя>".
	ErrNoHeader = errors.New("missing FLOW header")

	// ErrNoTerminator — документ не завершён END FLOW.
	ErrNoTerminator = errors.New("missing END FLOW")

	// ErrUnknownOperator — неизвестное ключевое слово оператора.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrMalformedStep — тело шага не соответствует грамматике.
	ErrMalformedStep = errors.New("malformed step")

	// ErrDuplicateName — имя входа или шага объявлено повторно.
	ErrDuplicateName = errors.New("duplicate name")
)

// Error — ошибка разбора с позицией в исходнике.
type Error struct {
	// Line — строка (с 1).
	Line int

	// Col — колонка (с 1).
	Col int

	// Msg — описание ошибки.
	Msg string

	// Err — базовая ошибка (одна из сентинелей выше).
	Err error
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Unwrap возвращает базовую ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}
