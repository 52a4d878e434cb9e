package browser

import "errors"

// Validation errors are raised before any collaborator call is made.
// They are distinguishable with errors.Is so the presentation layer can
// render them inline instead of as backend failures.
var (
	// ErrInvalidQuery indicates the search query text is not valid JSON.
	ErrInvalidQuery = errors.New("browser: query is not valid JSON")

	// ErrInvalidDocument indicates a document body is not a JSON object.
	ErrInvalidDocument = errors.New("browser: document body is not a JSON object")

	// ErrInvalidResourceName indicates an index name violates naming rules.
	ErrInvalidResourceName = errors.New("browser: invalid index name")

	// ErrNoIDs indicates a delete was requested with an empty id list.
	ErrNoIDs = errors.New("browser: no document ids given")

	// ErrInvalidShards indicates shard or replica counts are out of range.
	ErrInvalidShards = errors.New("browser: shard counts out of range")

	// ErrNoResource indicates an operation that needs an active index was
	// issued while none is selected.
	ErrNoResource = errors.New("browser: no index selected")

	// ErrInvalidPage indicates a page number below 1.
	ErrInvalidPage = errors.New("browser: page must be at least 1")
)

// IsValidation reports whether err is a local pre-network validation
// failure rather than a collaborator failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidQuery,
		ErrInvalidDocument,
		ErrInvalidResourceName,
		ErrNoIDs,
		ErrInvalidShards,
		ErrNoResource,
		ErrInvalidPage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
