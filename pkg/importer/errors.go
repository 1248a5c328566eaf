package importer

import "errors"

var (
	ErrUnknownAdapter = errors.New("unknown import source")
	ErrNoSourceURL    = errors.New("no source URL configured")
	// ErrNoRecords is returned when a source parses to zero records; the
	// corpus table is left untouched.
	ErrNoRecords = errors.New("source contains no records")
)
