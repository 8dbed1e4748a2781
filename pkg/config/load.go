package config

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultEnvPrefix is the prefix of environment variables read by Load.
	DefaultEnvPrefix = "EACH_"
	// ConfigFileEnv names the environment variable pointing at a settings file.
	ConfigFileEnv = "EACH_CONFIG"

	envDelim = "__"
	keyDelim = "."
)

type loadOptions struct {
	envPrefix string
	file      string
	flags     *pflag.FlagSet
	skipEnv   bool
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFile loads settings from path. It takes precedence over EACH_CONFIG.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithoutEnv ignores the environment entirely, including EACH_CONFIG.
func WithoutEnv() LoadOption {
	return func(o *loadOptions) {
		o.skipEnv = true
	}
}

// WithFlags layers changed flags on top of every other source. Flag names
// map to keys with "-" replaced by "_" (--log-level sets log_level).
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) {
		o.flags = fs
	}
}

// Load builds Settings from defaults, file, environment and flags.
func Load(opts ...LoadOption) (*Settings, error) {
	o := loadOptions{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.file == "" && !o.skipEnv {
		o.file = os.Getenv(ConfigFileEnv)
	}

	k := koanf.New(keyDelim)

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load default settings").
			WithTextCode("DEFAULTS_LOAD_FAILED")
	}

	if o.file != "" {
		parser, err := ParserFor(o.file)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(o.file), parser); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load settings file").
				WithTextCode("FILE_LOAD_FAILED").
				WithMetadata(map[string]any{"filepath": o.file})
		}
	}

	if !o.skipEnv {
		if err := k.Load(newEnvProvider(o.envPrefix, envDelim), jsonParser()); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load environment variables").
				WithTextCode("ENV_LOAD_FAILED").
				WithMetadata(map[string]any{"prefix": o.envPrefix})
		}
	}

	if o.flags != nil {
		prv := posflag.ProviderWithFlag(o.flags, keyDelim, k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(o.flags, f)
		})
		if err := k.Load(prv, nil); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load settings from flags").
				WithTextCode("FLAGS_LOAD_FAILED")
		}
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode settings").
			WithTextCode("DECODE_FAILED")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func jsonParser() koanf.Parser {
	return FileTypeJSON.Parser()
}
