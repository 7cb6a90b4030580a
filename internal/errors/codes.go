// Package errors provides structured error handling for lorestore.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus IO errors (file, disk)
//   - 3XX: Storage errors (embedded database, search index)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Kind classifies errors by how callers should react to them.
type Kind string

const (
	// KindNotFound means the requested thing does not exist. Callers may
	// collapse this to an empty result set.
	KindNotFound Kind = "NOT_FOUND"
	// KindTransient means one item in a batch failed; the batch continues.
	KindTransient Kind = "TRANSIENT"
	// KindStorageUnavailable means the backing store cannot be reached or
	// is corrupt. Always propagates; never collapsed to an empty result.
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	// KindInvalid means the caller supplied bad input.
	KindInvalid Kind = "INVALID"
	// KindInternal is everything else.
	KindInternal Kind = "INTERNAL"
)

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCorpus indicates corpus file I/O errors.
	CategoryCorpus Category = "CORPUS"
	// CategoryStorage indicates embedded-database and index errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Corpus IO errors (200-299)
	ErrCodeFileUnreadable = "ERR_201_FILE_UNREADABLE"
	ErrCodeBadPattern     = "ERR_202_BAD_PATTERN"

	// Storage errors (300-399)
	ErrCodeStoreClosed      = "ERR_301_STORE_CLOSED"
	ErrCodeStoreUnavailable = "ERR_302_STORE_UNAVAILABLE"
	ErrCodeCorruptIndex     = "ERR_303_CORRUPT_INDEX"
	ErrCodeNotFound         = "ERR_304_NOT_FOUND"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidTopK  = "ERR_402_INVALID_TOPK"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCorpus
	case '3':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// kindFromCode derives the caller-facing kind from an error code.
func kindFromCode(code string) Kind {
	switch code {
	case ErrCodeNotFound:
		return KindNotFound
	case ErrCodeFileUnreadable:
		return KindTransient
	case ErrCodeStoreClosed, ErrCodeStoreUnavailable, ErrCodeCorruptIndex,
		ErrCodeSearchFailed, ErrCodeIndexFailed:
		return KindStorageUnavailable
	case ErrCodeInvalidInput, ErrCodeInvalidTopK, ErrCodeBadPattern, ErrCodeConfigInvalid:
		return KindInvalid
	default:
		return KindInternal
	}
}
