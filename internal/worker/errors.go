package worker

import "errors"

var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run уже не в статусе PENDING.
	ErrRunNotPending = errors.New("run is not pending")
)
