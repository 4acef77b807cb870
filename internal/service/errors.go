package service

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("not signed in or session expired")
)
