package errors

var (
	ErrUploadNotFound = New(
		"UPLOAD_NOT_FOUND",
		"Entity upload not found",
	)

	ErrEntityNotFound = New(
		"ENTITY_NOT_FOUND",
		"Geographical entity not found",
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Layer upload session not found",
	)

	ErrInvalidLevel = New(
		"INVALID_LEVEL",
		"Invalid admin level",
	)

	ErrInvalidThresholds = New(
		"INVALID_THRESHOLDS",
		"Invalid matching thresholds",
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
	)

	ErrGeometryEngine = New(
		"GEOMETRY_ENGINE_ERROR",
		"Geometry engine operation failed",
	)
)
