package core

import "github.com/pkg/errors"

// errors
var (
	ErrNilStore  = errors.New("store is nil")
	ErrNilLogger = errors.New("logger is nil")
)
