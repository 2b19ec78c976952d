// Package repository implements the MySQL-backed storage layer.  Each
// repository owns one table; methods with a Tx suffix run inside a
// caller-supplied transaction so that multi-table business operations
// commit or roll back as one unit.  Sentinel errors defined here let
// handlers distinguish failure scenarios without parsing driver
// errors; the booking package defines its own sentinels for the
// settlement store contract.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by a different company or user.  Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent state, such as removing a trip that still has
// active tickets.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCompanyNotFound indicates that a company row was not located.
var ErrCompanyNotFound = errors.New("company not found")

// ErrDuplicateCode indicates a coupon code collision on insert.
var ErrDuplicateCode = errors.New("coupon code already exists")

// ErrEmailExists indicates a registration attempt with a taken email.
var ErrEmailExists = errors.New("email already exists")
