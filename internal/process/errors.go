package process

import (
	"errors"
	"strings"
)

// MissingDependencyError reports external commands that could not be
// resolved on the system path. Returned by Start before anything is
// spawned.
type MissingDependencyError struct {
	Commands []string
}

func (e *MissingDependencyError) Error() string {
	return "missing required commands: " + strings.Join(e.Commands, ", ")
}

// IsMissingDependency reports whether err is a MissingDependencyError.
func IsMissingDependency(err error) bool {
	var target *MissingDependencyError
	return errors.As(err, &target)
}
