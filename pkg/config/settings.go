// Package config loads the settings that tune case registration.
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional file named by EACH_CONFIG, EACH_* environment variables, and
// command-line flags when a flag set is supplied.
package config

import (
	"sync"

	"github.com/goliatone/go-errors"

	"github.com/specvital/each/pkg/logging"
)

// NoCase disables the single-case override.
const NoCase = -1

// ErrInvalidSettings is returned when loaded settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings", errors.CategoryValidation).
	WithTextCode("INVALID_SETTINGS")

// Settings tune registration behavior.
type Settings struct {
	// Case, when not NoCase, narrows every registration pass to that index.
	Case int `koanf:"case"`
	// FailOnFocus turns focused registrations into an error.
	FailOnFocus bool `koanf:"fail_on_focus"`
	// LogLevel is a logrus level name.
	LogLevel string `koanf:"log_level"`
	// Parallel is the default for the Parallel registration option.
	Parallel bool `koanf:"parallel"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Case:     NoCase,
		LogLevel: logging.DefaultLevel.String(),
	}
}

// Validate checks field values.
func (s Settings) Validate() error {
	if !logging.ValidLevel(s.LogLevel) {
		return errors.Wrap(ErrInvalidSettings, errors.CategoryValidation, "unknown log level").
			WithMetadata(map[string]any{"log_level": s.LogLevel})
	}
	if s.Case < NoCase {
		return errors.Wrap(ErrInvalidSettings, errors.CategoryValidation, "case index must be -1 or greater").
			WithMetadata(map[string]any{"case": s.Case})
	}
	return nil
}

// HasCase reports whether the single-case override is set.
func (s Settings) HasCase() bool {
	return s.Case != NoCase
}

var (
	currentOnce sync.Once
	current     *Settings
	currentErr  error
)

// Current returns the settings derived from the process environment. It
// loads them once; later calls return the cached result.
func Current() (*Settings, error) {
	currentOnce.Do(func() {
		current, currentErr = Load()
	})
	return current, currentErr
}
