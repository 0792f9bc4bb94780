package patterns

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPattern reports an unusable entry in a pattern file.
var ErrInvalidPattern = errors.New("invalid section pattern")

// sectionFile is the on-disk shape of an extra section vocabulary.
//
//	sections:
//	  - pattern: "trial\\s+registration"
//	    name: Trial Registration
//	    level: 2
//	    aliases: [registration]
type sectionFile struct {
	Sections []sectionEntry `yaml:"sections"`
}

type sectionEntry struct {
	Pattern string   `yaml:"pattern"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Level   int      `yaml:"level"`
	// Raw entries are compiled as written instead of as a whole-line header.
	Raw bool `yaml:"raw"`
}

// LoadSectionPatterns reads extra section patterns from YAML.
func LoadSectionPatterns(r io.Reader) ([]SectionPattern, error) {
	var f sectionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode pattern file: %w", err)
	}

	out := make([]SectionPattern, 0, len(f.Sections))
	for i, e := range f.Sections {
		p, err := e.compile()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadSectionPatternsFile reads extra section patterns from a YAML file.
func LoadSectionPatternsFile(path string) ([]SectionPattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pattern file: %w", err)
	}
	defer f.Close()
	return LoadSectionPatterns(f)
}

func (e sectionEntry) compile() (SectionPattern, error) {
	expr := strings.TrimSpace(e.Pattern)
	if expr == "" {
		return SectionPattern{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if e.Level < 0 {
		return SectionPattern{}, fmt.Errorf("%w: negative level %d", ErrInvalidPattern, e.Level)
	}

	if !e.Raw {
		expr = `(?i)^` + headerPrefix + `(?:` + expr + `)\s*:?$`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return SectionPattern{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if e.Name == "" && re.SubexpIndex("title") < 0 {
		return SectionPattern{}, fmt.Errorf("%w: %q needs a name or a (?P<title>...) group", ErrInvalidPattern, e.Pattern)
	}

	level := e.Level
	if level == 0 && e.Name != "" {
		level = 1
	}
	return SectionPattern{
		Pattern: re,
		Name:    e.Name,
		Aliases: e.Aliases,
		Level:   level,
	}, nil
}
