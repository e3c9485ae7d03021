package vvm

import (
	"errors"
	"fmt"
)

// Ошибки загрузки и выполнения программ.
var (
	// ErrUnresolvedLabel — цель перехода отсутствует в программе.
	ErrUnresolvedLabel = errors.New("unresolved jump label")

	// ErrDuplicateLabel — метка объявлена более одного раза.
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrInvalidInstruction — инструкция с неизвестным опкодом
	// или недопустимыми аргументами.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrStepLimit — превышен лимит шагов выполнения.
	ErrStepLimit = errors.New("step limit exceeded")
)

// LoadError — фатальная ошибка загрузки программы.
// Выполнение после неё не начинается.
type LoadError struct {
	// Index — индекс инструкции (с 0), к которой относится ошибка.
	Index int

	// Err — причина.
	Err error
}

// Error реализует интерфейс error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load: instruction %d: %v", e.Index, e.Err)
}

// Unwrap возвращает причину для errors.Is.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// RuntimeError — ошибка во время выполнения.
//
// При корректной загрузке достижима только из-за нарушения правил
// типов (булева арифметика) или лимита шагов: всё остальное
// отлавливается статически.
type RuntimeError struct {
	// PC — счётчик команд в момент ошибки.
	PC int

	// Err — причина.
	Err error
}

// Error реализует интерфейс error.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("pc=%d: %v", e.PC, e.Err)
}

// Unwrap возвращает причину для errors.Is.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}
