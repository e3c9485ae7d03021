package planner

import (
	"errors"
	"fmt"
)

// Ошибки построения плана.
var (
	// ErrUnknownDependency — шаг ссылается на необъявленное имя.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrEmptyDocument — документ без шагов.
	ErrEmptyDocument = errors.New("document has no steps")

	// ErrCycle — граф содержит цикл. При разрешении только назад по
	// порядку объявления недостижимо; оставлено как защита инварианта.
	ErrCycle = errors.New("plan graph contains a cycle")
)

// DependencyError — неразрешённая ссылка внутри шага.
type DependencyError struct {
	// Name — необъявленный идентификатор.
	Name string

	// Step — имя шага, в котором встретилась ссылка.
	Step string
}

// Error реализует интерфейс error.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("unknown dependency: %s (step %s)", e.Name, e.Step)
}

// Unwrap возвращает базовую ошибку для errors.Is.
func (e *DependencyError) Unwrap() error {
	return ErrUnknownDependency
}
