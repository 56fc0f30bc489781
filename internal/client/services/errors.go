package services

import "errors"

var (
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyFile           = errors.New("file is empty")
	ErrCorruptDocument     = errors.New("document could not be read")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrEmptyName           = errors.New("name is empty")
)
