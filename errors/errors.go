package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrDuplicateIdentity = fmt.Errorf("identity already registered")
	ErrEmptyCatalog      = fmt.Errorf("task catalog is empty")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrNoProgress        = fmt.Errorf("no saved progress for this player")
)
