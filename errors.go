package schemakg

import "errors"

var (
	// ErrOracle is returned when the extraction model cannot be reached or
	// rejects the request. Malformed replies are not oracle errors; they
	// degrade to an empty ingest.
	ErrOracle = errors.New("schemakg: extraction oracle failed")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("schemakg: unsupported document format")

	// ErrNoSnapshotStore is returned when snapshot operations are requested
	// without a snapshot path configured.
	ErrNoSnapshotStore = errors.New("schemakg: snapshot store not configured")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("schemakg: invalid configuration")
)
