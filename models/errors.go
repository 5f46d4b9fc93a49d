package models

import "errors"

var (
	ErrInvalidSlug       = errors.New("name must contain at least one letter or digit")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidStatus     = errors.New("unknown status")
	ErrInvalidRole       = errors.New("unknown role")
	ErrLastOwner         = errors.New("a team must keep at least one owner")
)
