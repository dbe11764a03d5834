package lease

import "errors"

// Dispatch and generation errors. Handlers map these to 4xx responses; any
// other error is a 5xx.
var (
	// ErrNotDraft means the document has already been dispatched or closed;
	// regenerate to get a fresh draft
	ErrNotDraft = errors.New("document is not a draft")

	// ErrTerminal means the document is Signed, Declined or Voided and
	// accepts no further transitions
	ErrTerminal = errors.New("document is in a terminal state")

	// ErrTenantNotSignable means the tenant record is missing data required
	// to request a signature (name or email)
	ErrTenantNotSignable = errors.New("tenant is missing name or email")
)
