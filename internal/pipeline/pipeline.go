// Package pipeline связывает разбор, планирование и выполнение
// FLOW-документа в один детерминированный конвейер. Запуски хранят
// исходный текст, а не план: повторная компиляция одного и того же
// текста всегда даёт один и тот же граф.
package pipeline

import (
	"context"
	"fmt"

	"github.com/voike/voike/internal/engine"
	"github.com/voike/voike/internal/parser"
	"github.com/voike/voike/internal/planner"
)

// ParseFailedError — исходный текст не прошёл разбор.
type ParseFailedError struct {
	Errors []parser.Error
}

func (e *ParseFailedError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("parse failed: %s", e.Errors[0].Error())
	}
	return fmt.Sprintf("parse failed: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Compiled — результат компиляции FLOW-текста.
type Compiled struct {
	// Doc — AST документа.
	Doc *parser.Document

	// Graph — план выполнения.
	Graph *planner.Graph

	// Warnings — некритичные замечания разбора.
	Warnings []string
}

// Compile разбирает текст и строит план. Возвращает *ParseFailedError
// при ошибках разбора и ошибку планировщика при неразрешимых ссылках.
func Compile(source string) (*Compiled, error) {
	res := parser.Parse(source, parser.Options{})
	if !res.OK {
		return nil, &ParseFailedError{Errors: res.Errors}
	}

	graph, err := planner.Build(res.Doc)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	return &Compiled{Doc: res.Doc, Graph: graph, Warnings: res.Warnings}, nil
}

// Execute компилирует текст и выполняет план до завершения.
func Execute(ctx context.Context, source string, inputs map[string]string, collab engine.Collaborators) (*engine.Result, error) {
	compiled, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return engine.Execute(ctx, compiled.Graph, inputs, collab)
}
