package client

import (
	"errors"
	"fmt"
)

var (
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrNotAuthenticated = errors.New("not authenticated, run: greenkeep login")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrOffline          = errors.New("server unreachable")
)

// StatusError - ответ сервера с кодом ошибки.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ошибка сервера (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("ошибка сервера: статус %d", e.Code)
}
