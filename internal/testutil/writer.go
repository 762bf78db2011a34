package testutil

// FailingWriter is an io.Writer that always returns ErrMockWriteFailed.
type FailingWriter struct{}

// Write implements io.Writer.
func (FailingWriter) Write([]byte) (int, error) {
	return 0, ErrMockWriteFailed
}
