package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAmbiguous           = errors.New("ambiguous match")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrIdentifierCollision = errors.New("identifier collision")
)
