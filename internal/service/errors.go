package service

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not signed in")
	ErrNotAuthor          = errors.New("only the author can modify this article")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrWriterClosed       = errors.New("writer closed")
)
