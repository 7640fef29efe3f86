// Package repository defines error types that are reused across the
// repositories. These sentinel values allow higher layers such as the
// auth service and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when no user row matches the given
// id or identifier.
var ErrNotFound = errors.New("user not found")

// ErrUsernameExists is returned when an insert violates the unique
// constraint on users.username.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert violates the unique
// constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenMismatch is returned by RotateRefreshToken when the stored
// refresh token no longer equals the presented one. The presented token
// has been superseded (rotated away or cleared by logout), so the
// rotation must be rejected.
var ErrTokenMismatch = errors.New("refresh token mismatch")
