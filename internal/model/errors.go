package model

import "errors"

// Sentinel errors returned by the registry. Callers check these with
// errors.Is instead of inspecting driver errors.
var (
	ErrDuplicateName  = errors.New("organization name already exists")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrOrgNotFound    = errors.New("organization not found")
	ErrAdminNotFound  = errors.New("admin not found")
)
