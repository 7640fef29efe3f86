package auth

// The auth service reports every failure as an *Error carrying one of a
// closed set of kinds. Handlers map kinds to HTTP statuses; the message is
// safe to return to clients and never contains hashes or token material.

// Kind identifies the category of an authentication failure.
type Kind string

const (
	// KindUnauthenticated — no token was presented at all.
	KindUnauthenticated Kind = "unauthenticated"
	// KindInvalidToken — bad signature, malformed, or expired token.
	KindInvalidToken Kind = "invalid_token"
	// KindUnknownSubject — token verified but the subject no longer exists.
	KindUnknownSubject Kind = "unknown_subject"
	// KindTokenReused — refresh token verified but superseded: the stored
	// value differs, meaning it already rotated or this is a replay.
	KindTokenReused Kind = "token_reused"
	// KindCredentialMismatch — login secret is wrong.
	KindCredentialMismatch Kind = "credential_mismatch"
	// KindNotFound — login identifier matches no account.
	KindNotFound Kind = "not_found"
)

// Error is a structured authentication failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// Is makes errors.Is(err, target) match any *Error of the same kind, so
// callers can compare against the canonical values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Canonical values for errors.Is comparisons.
var (
	ErrUnauthenticated    = &Error{KindUnauthenticated, "no token presented"}
	ErrInvalidToken       = &Error{KindInvalidToken, "invalid or expired token"}
	ErrUnknownSubject     = &Error{KindUnknownSubject, "subject no longer exists"}
	ErrTokenReused        = &Error{KindTokenReused, "refresh token superseded"}
	ErrCredentialMismatch = &Error{KindCredentialMismatch, "invalid credentials"}
	ErrNotFound           = &Error{KindNotFound, "account not found"}
)
