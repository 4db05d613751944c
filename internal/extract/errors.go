package extract

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrCouldNotExtract is the recoverable outcome of a failed extraction. The
// caller asks the speaker to rephrase or fill the form manually.
var ErrCouldNotExtract = eris.New("extract: could not extract, please rephrase or fill manually")

// errMalformed marks an unusable model response. It is retried.
var errMalformed = eris.New("extract: malformed payload")

// ValidationError reports required fields the model could not find.
// It unwraps to ErrCouldNotExtract.
type ValidationError struct {
	Missing  []string
	Language string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("extract: missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrCouldNotExtract }
