package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/initializ/envpipe/util"
)

// Sentinels matched with errors.Is against errors returned by this package.
var (
	ErrInvalidName              = util.ErrInvalidName
	ErrInvalidBuildSpec         = errors.New("invalid build spec")
	ErrEmptyAliasList           = errors.New("aliases must not be empty")
	ErrDuplicateStageName       = errors.New("duplicate stage name")
	ErrDuplicateEnvironmentName = errors.New("duplicate environment name")
	ErrMissingCertificate       = errors.New("certificate is required")
	ErrMissingHostedZone        = errors.New("hosted zone is required")
	ErrMissingSourceKey         = errors.New("artifacts source key is required")
	ErrUnknownPriceClass        = errors.New("unknown price class")
	ErrReservedVariable         = errors.New("variable name is reserved for deploy credentials")
)

// ConfigurationError reports malformed or contradictory input. It is fatal
// to the environment it names (or to the whole run when Environment is
// empty) and is never worth retrying.
type ConfigurationError struct {
	Environment string
	Field       string
	Err         error
}

// Error names the environment and field, when known, before the cause.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	if e.Environment != "" {
		fmt.Fprintf(&b, "environment %q: ", e.Environment)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the cause, usually one of the Err sentinels.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// CollisionError reports environments whose names normalize to the same
// identifier. It is fatal to the whole run.
type CollisionError struct {
	Identifier   string
	Environments []string
}

// Error lists the colliding environment names and their shared identifier.
func (e *CollisionError) Error() string {
	quoted := make([]string, len(e.Environments))
	for i, n := range e.Environments {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("%v: environments %s all normalize to %q",
		ErrDuplicateEnvironmentName, strings.Join(quoted, ", "), e.Identifier)
}

// Is matches ErrDuplicateEnvironmentName, and any *CollisionError for the
// same identifier.
func (e *CollisionError) Is(target error) bool {
	if target == ErrDuplicateEnvironmentName {
		return true
	}
	t, ok := target.(*CollisionError)
	return ok && t.Identifier == e.Identifier
}

// IsConfiguration reports whether err (or any error in its chain) is a
// ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsCollision reports whether err (or any error in its chain) is a
// CollisionError.
func IsCollision(err error) bool {
	var ce *CollisionError
	return errors.As(err, &ce)
}

func configErr(env, field string, err error) error {
	return &ConfigurationError{Environment: env, Field: field, Err: err}
}

func configErrf(env, field string, sentinel error, format string, a ...any) error {
	return configErr(env, field, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, a...)))
}
