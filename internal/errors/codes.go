package errors

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "not found",
	}
	ErrConstraintViolation = &DomainError{
		Code:    "CONSTRAINT_VIOLATION",
		Message: "offline store rejected the record",
	}
	ErrStoreUnavailable = &DomainError{
		Code:    "STORE_UNAVAILABLE",
		Message: "store unavailable",
	}
	ErrStoreTimeout = &DomainError{
		Code:    "STORE_TIMEOUT",
		Message: "store call timed out",
	}
	// ErrServiceUnavailable is returned by Submit/Confirm when a store needed
	// to produce a trustworthy answer cannot be reached.
	ErrServiceUnavailable = &DomainError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "service unavailable",
	}
)
