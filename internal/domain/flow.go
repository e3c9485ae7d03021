package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flow — зарегистрированный конвейер FLOW.
//
// Flow — это идентичность конвейера: имя из заголовка FLOW "...".
// Исходный текст живёт в версиях (FlowVersion); каждый запуск (Run)
// выполняет конкретную версию.
type Flow struct {
	// ID — уникальный идентификатор flow.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя из заголовка документа FLOW.
	Name string `json:"name"`

	// IsActive — флаг активности. Неактивные flow не запускаются
	// по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время регистрации flow.
	CreatedAt time.Time `json:"created_at"`
}

// FlowVersion — версия flow с конкретным исходным текстом.
//
// Исходник хранится как есть: разбор детерминирован, поэтому парсер
// и планировщик восстанавливают AST и план из текста в любой момент.
type FlowVersion struct {
	// FlowID — ссылка на родительский flow.
	FlowID uuid.UUID `json:"flow_id"`

	// Version — номер версии (1, 2, 3, ...), автоинкремент.
	Version int `json:"version"`

	// Source — исходный текст документа FLOW.
	Source string `json:"source"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
