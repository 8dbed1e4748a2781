package config

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// FileType is a supported structured file format.
type FileType string

const (
	FileTypeJSON FileType = "json"
	FileTypeTOML FileType = "toml"
	FileTypeYAML FileType = "yaml"
)

// ErrUnsupportedFormat is returned for files whose extension maps to no
// parser.
var ErrUnsupportedFormat = errors.New("unsupported file format", errors.CategoryBadInput).
	WithTextCode("UNSUPPORTED_FORMAT")

// FileTypeOf infers the format from the file extension.
func FileTypeOf(path string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FileTypeJSON, nil
	case ".toml":
		return FileTypeTOML, nil
	case ".yaml", ".yml":
		return FileTypeYAML, nil
	default:
		return "", errors.Wrap(ErrUnsupportedFormat, errors.CategoryBadInput, "cannot infer file format").
			WithMetadata(map[string]any{
				"path":        path,
				"valid_types": []string{string(FileTypeJSON), string(FileTypeTOML), string(FileTypeYAML)},
			})
	}
}

// Parser returns the koanf parser for t.
func (t FileType) Parser() koanf.Parser {
	switch t {
	case FileTypeTOML:
		return toml.Parser()
	case FileTypeYAML:
		return yaml.Parser()
	default:
		return json.Parser()
	}
}

// ParserFor combines FileTypeOf and Parser.
func ParserFor(path string) (koanf.Parser, error) {
	ft, err := FileTypeOf(path)
	if err != nil {
		return nil, err
	}
	return ft.Parser(), nil
}
