package diag

import "fmt"

// Kind identifies the category of a LoadError
type Kind int

const (
	// NotAccessible means a path could not be classified or listed because the
	// filesystem denied access or the path does not exist
	NotAccessible Kind = iota
	// UnexpectedType means classification succeeded but produced a type the
	// walker cannot handle, including too many symbolic link hops
	UnexpectedType
	// Underlying wraps any other filesystem failure verbatim
	Underlying
)

func (k Kind) String() string {
	switch k {
	case NotAccessible:
		return "not_accessible"
	case UnexpectedType:
		return "unexpected_type"
	default:
		return "underlying"
	}
}

// Sentinels for errors.Is. They match any LoadError of the same Kind.
var (
	ErrNotAccessible  = &LoadError{Kind: NotAccessible}
	ErrUnexpectedType = &LoadError{Kind: UnexpectedType}
	ErrUnderlying     = &LoadError{Kind: Underlying}
)

// LoadError is a fatal discovery failure tied to a path
type LoadError struct {
	Kind  Kind
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	var msg string
	switch e.Kind {
	case NotAccessible:
		msg = fmt.Sprintf("Can't read path %s", e.Path)
	case UnexpectedType:
		msg = fmt.Sprintf("Unexpected file type for path %s", e.Path)
	default:
		msg = fmt.Sprintf("Failed to access %s", e.Path)
	}

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LoadError of the same Kind. A target with a
// Path only matches errors for that exact path.
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Path == "" || t.Path == e.Path)
}

// NewLoadError builds a LoadError without any side effects.
func NewLoadError(kind Kind, path string, cause error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Cause: cause}
}
