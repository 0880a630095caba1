package sequence

// ErrorKind classifies recoverable failures inside a turn. None of these
// propagate out of a chat turn; the dispatcher renders them as text.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindParse      ErrorKind = "parse"
	KindNotFound   ErrorKind = "not_found"
	KindStorage    ErrorKind = "storage"
	KindDispatch   ErrorKind = "dispatch"
)

// Error carries a structured kind plus the user-facing message, so callers
// can branch without string inspection.
type Error struct {
	Kind    ErrorKind
	Message string
	Raw     string // raw model output, set for parse failures
}

func (e *Error) Error() string {
	return e.Message
}

// UserText renders the error as the text surfaced in the chat reply. Parse
// failures embed the raw model output for diagnosability.
func (e *Error) UserText() string {
	if e.Kind == KindParse && e.Raw != "" {
		return e.Message + "\n\nRaw content:\n" + e.Raw
	}
	return e.Message
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storageError(msg string) *Error {
	return &Error{Kind: KindStorage, Message: msg}
}
