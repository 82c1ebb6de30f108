package discovery

import "errors"

var (
	// ErrInvalidInput is returned before any network call when a name or
	// domain is empty after trimming.
	ErrInvalidInput = errors.New("first name, last name and domain are required")

	// ErrInvalidDomain is returned when the domain does not form a
	// syntactically valid address part.
	ErrInvalidDomain = errors.New("malformed domain")

	// ErrNoMXRecords means the domain resolved but has no mail exchangers.
	// Distinct from ErrResolveTimeout: absence of records and failure to
	// resolve are different failure kinds.
	ErrNoMXRecords = errors.New("domain has no MX records")

	// ErrResolveTimeout means no configured resolver answered in time.
	ErrResolveTimeout = errors.New("MX resolution timed out")
)
