package config

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/sjson"
)

// envProvider is a koanf provider that turns prefixed environment variables
// into a JSON document. The prefix is stripped, names are lower-cased and
// delim marks nesting, so EACH_LOG_LEVEL becomes {"log_level": ...} and
// EACH_A__B becomes {"a": {"b": ...}} with delim "__".
type envProvider struct {
	prefix  string
	delim   string
	environ func() []string
}

func newEnvProvider(prefix, delim string) *envProvider {
	return &envProvider{prefix: prefix, delim: delim, environ: os.Environ}
}

// ReadBytes implements koanf.Provider.
func (e *envProvider) ReadBytes() ([]byte, error) {
	out := "{}"
	for _, kv := range e.environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		key := e.key(name)
		if key == "" {
			continue
		}

		next, err := sjson.Set(out, key, val)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to map environment variable").
				WithMetadata(map[string]any{"variable": name})
		}
		out = next
	}
	return []byte(out), nil
}

// Read implements koanf.Provider.
func (e *envProvider) Read() (map[string]any, error) {
	return nil, errors.New("env provider does not support Read", errors.CategoryOperation)
}

func (e *envProvider) key(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, e.prefix))
	if e.delim != "" {
		key = strings.ReplaceAll(key, strings.ToLower(e.delim), ".")
	}
	return strings.Trim(key, ".")
}
