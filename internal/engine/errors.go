package engine

import (
	"errors"
	"fmt"
)

// Ошибки выполнения запуска.
var (
	// ErrMissingInput — объявленный вход не передан или пуст.
	ErrMissingInput = errors.New("input is missing or empty")

	// ErrTypeMismatch — значение не приводится к нужному типу
	// в фильтре или агрегации.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnresolvedPath — точечный путь не разрешается в значение.
	ErrUnresolvedPath = errors.New("path resolution failed")

	// ErrNotMaterialized — ссылка на имя, не материализованное
	// в контексте запуска.
	ErrNotMaterialized = errors.New("value is not materialized")

	// ErrNoCollaborator — оператору нужен коллаборатор,
	// который не был передан.
	ErrNoCollaborator = errors.New("collaborator is not configured")

	// ErrCollaborator — переданный коллаборатор вернул ошибку.
	ErrCollaborator = errors.New("collaborator failed")
)

// StepError — фатальная ошибка запуска.
// Всегда называет шаг и оператор, на которых запуск оборвался.
type StepError struct {
	// Step — имя шага.
	Step string

	// Op — каноническое имя оператора.
	Op string

	// Err — причина.
	Err error
}

// Error реализует интерфейс error.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s): %v", e.Step, e.Op, e.Err)
}

// Unwrap возвращает причину для errors.Is / errors.As.
func (e *StepError) Unwrap() error {
	return e.Err
}
