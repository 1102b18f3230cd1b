package midline

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingInput is returned when a required mask or landmark file does not
// exist. The run aborts before any computation.
var ErrMissingInput = errors.New("input not found")

// CheckInputs stats every path and reports all missing ones at once.
func CheckInputs(paths ...string) error {
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}
