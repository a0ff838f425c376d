package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NamingElement produces one piece of an output file name.
type NamingElement interface {
	// Append renders this element and appends it to name. dir is the
	// storage folder, needed by SequenceNamingElement to inspect existing
	// files.
	Append(name *strings.Builder, dir string)

	// format renders the element back to NamingScheme's textual format.
	format() string
}

// StringNamingElement emits a fixed literal.
type StringNamingElement struct {
	Value string
}

func (e StringNamingElement) Append(name *strings.Builder, dir string) { name.WriteString(e.Value) }
func (e StringNamingElement) format() string                          { return fmt.Sprintf("%q", e.Value) }

// DateNamingElement emits the current date/time formatted per Layout, a Go
// reference-time layout string (e.g. "20060102").
type DateNamingElement struct {
	Layout string
}

func (e DateNamingElement) Append(name *strings.Builder, dir string) {
	name.WriteString(time.Now().Format(e.Layout))
}
func (e DateNamingElement) format() string { return "date(" + e.Layout + ")" }

// SequenceNamingElement emits the lowest positive integer that, appended at
// this point, does not collide with an existing file in dir whose name
// starts with the same prefix.
type SequenceNamingElement struct{}

func (e SequenceNamingElement) Append(name *strings.Builder, dir string) {
	prefix := name.String()

	entries, err := os.ReadDir(dir)
	if err != nil {
		name.WriteString("1")
		return
	}

	var candidates []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) == 0 {
		name.WriteString("1")
		return
	}

	for n := 1; ; n++ {
		attempt := prefix + strconv.Itoa(n)
		collision := false
		for _, c := range candidates {
			if strings.HasPrefix(c, attempt) {
				collision = true
				break
			}
		}
		if !collision {
			name.WriteString(strconv.Itoa(n))
			return
		}
	}
}

func (e SequenceNamingElement) format() string { return "sequence" }

// NamingScheme builds output file names from a sequence of elements joined
// by Separator.
type NamingScheme struct {
	Elements  []NamingElement
	Separator string
}

// DefaultNamingScheme returns the out-of-the-box scheme: a literal prefix,
// the current date, and a collision-avoiding sequence number.
func DefaultNamingScheme() NamingScheme {
	s := NamingScheme{Separator: "-"}
	s.SetFormat(`"recording" date(20060102) sequence`)
	return s
}

// FileName builds the base name (without extension) for a new recording in
// dir.
func (s NamingScheme) FileName(dir string) string {
	var b strings.Builder
	if len(s.Elements) == 0 {
		return "output"
	}
	for i, el := range s.Elements {
		el.Append(&b, dir)
		if i < len(s.Elements)-1 {
			b.WriteString(s.Separator)
		}
	}
	return b.String()
}

// Format renders the scheme back to its textual representation, the
// inverse of SetFormat.
func (s NamingScheme) Format() string {
	parts := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		parts[i] = el.format()
	}
	return strings.Join(parts, " ")
}

var namingElementPattern = regexp.MustCompile(`"([^"]*)"|(\w+)(\(([\w/-]*)\))?`)

// SetFormat parses a textual naming scheme, replacing s.Elements. The
// grammar accepts quoted string literals, "date(<layout>)", and "sequence".
func (s *NamingScheme) SetFormat(format string) error {
	matches := namingElementPattern.FindAllStringSubmatch(format, -1)

	elements := make([]NamingElement, 0, len(matches))
	for _, m := range matches {
		full, quoted, identifier, param := m[0], m[1], m[2], m[4]
		switch {
		case identifier == "":
			elements = append(elements, StringNamingElement{Value: quoted})
		case identifier == "date":
			elements = append(elements, DateNamingElement{Layout: param})
		case identifier == "sequence":
			elements = append(elements, SequenceNamingElement{})
		default:
			return fmt.Errorf("naming scheme: unknown element %q", full)
		}
	}

	s.Elements = elements
	return nil
}
