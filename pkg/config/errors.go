package config

import "errors"

var (
	// ErrUnsupportedVersion is returned for settings written for another schema version
	ErrUnsupportedVersion = errors.New("unsupported settings version")
	// ErrInvalidSettings is returned when settings fail validation
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrUnparseable is returned when a settings file is neither JSON nor YAML
	ErrUnparseable = errors.New("failed to parse settings as JSON or YAML")
)
