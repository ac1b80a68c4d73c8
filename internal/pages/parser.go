package pages

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gazeta/internal/domain/content"
)

var (
	errNoFrontMatter      = errors.New("no front matter found")
	errInvalidFrontMatter = errors.New("invalid front matter")
)

// Quote is the epigraph printed under a page title.
type Quote struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
}

// Link is one entry of the contact list.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Icon  string `yaml:"icon"`
}

type FrontMatter struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
	Hidden      bool   `yaml:"hidden"`

	Quote     Quote  `yaml:"quote"`
	Signature string `yaml:"signature"`
	Links     []Link `yaml:"links"`
}

// ParseFrontMatter splits a "---" delimited YAML header from the markdown
// body. Without a header the whole input is the body and errNoFrontMatter
// is returned.
func ParseFrontMatter(raw []byte) (FrontMatter, []byte, error) {
	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))
	norm = bytes.TrimSpace(norm)
	if len(norm) == 0 {
		return FrontMatter{}, nil, errNoFrontMatter
	}

	const (
		sep      = "---"
		sepLine  = sep + "\n"
		closeMid = "\n" + sep + "\n"
	)

	if !bytes.HasPrefix(norm, []byte(sepLine)) {
		return FrontMatter{}, norm, errNoFrontMatter
	}
	rest := norm[len(sepLine):]

	var yamlPart, bodyPart []byte
	switch {
	case bytes.HasPrefix(rest, []byte(sepLine)):
		bodyPart = rest[len(sepLine):]
	case bytes.Equal(rest, []byte(sep)):
	default:
		if parts := bytes.SplitN(rest, []byte(closeMid), 2); len(parts) == 2 {
			yamlPart, bodyPart = parts[0], parts[1]
		} else if bytes.HasSuffix(rest, []byte("\n"+sep)) {
			yamlPart = rest[:len(rest)-len("\n"+sep)]
		} else {
			return FrontMatter{}, norm, errInvalidFrontMatter
		}
	}

	var fm FrontMatter
	if y := bytes.TrimSpace(yamlPart); len(y) > 0 {
		if err := yaml.Unmarshal(y, &fm); err != nil {
			return FrontMatter{}, norm, err
		}
	}
	return fm, bytes.TrimSpace(bodyPart), nil
}

// ResolveSlug prefers the explicit slug, then the file name. The title is
// not used: "Despre noi" lives at /echipa.
func ResolveSlug(fm FrontMatter, path string) string {
	if s := strings.TrimSpace(fm.Slug); s != "" {
		return content.Slugify(s)
	}
	base := filepath.Base(path)
	return content.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
}
