package repository

import "errors"

var (
	ErrPrincipalOverlap = errors.New("principal attribution overlap")
	ErrReferenceNotFound = errors.New("referenced record not found")
)
