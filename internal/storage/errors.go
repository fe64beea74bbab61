package storage

import "errors"

var (
	// ErrSettingsNotFound is returned when a user has no stored settings
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrSettingsExists is returned when inserting settings for a user that already has them
	ErrSettingsExists = errors.New("settings already exist")

	// ErrVersionConflict is returned when a conditional patch lost a race
	ErrVersionConflict = errors.New("settings version conflict")

	// ErrUnsupportedDatabase is returned for database URLs with an unknown scheme
	ErrUnsupportedDatabase = errors.New("unsupported database url")
)
