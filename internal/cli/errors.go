package cli

// UsageError is a flag combination cobra's own validation does not catch.
// It is returned before usage is silenced, so the help text is printed.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}
