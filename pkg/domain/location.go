package domain

import "fmt"

// Location is the source position of a registration call.
type Location struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

func (l Location) String() string {
	if l.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
