package obs

import (
	"io"

	"github.com/rs/zerolog"
)

// NewTestLogger exposes the writer-aware constructor to external tests.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return newLogger(w, "json", "debug")
}
