// Package media classifies attachment URLs for feed enclosures.
package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeVideo Type = iota
	TypeImage
	TypeAudio
	TypePDF
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	case TypePDF:
		return "pdf"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	DefaultMIME string            `toml:"default_mime"`
	URLPatterns []string          `toml:"url_patterns"`
	MIME        map[string]string `toml:"mime"`
}

type TypesConfig struct {
	Video TypeConfig `toml:"video"`
	Audio TypeConfig `toml:"audio"`
	Image TypeConfig `toml:"image"`
	PDF   TypeConfig `toml:"pdf"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}
	return &TypeDetector{config: &config}, nil
}

// ordered is the lookup order; the first type claiming an extension wins.
func (d *TypeDetector) ordered() []struct {
	typ Type
	cfg *TypeConfig
} {
	return []struct {
		typ Type
		cfg *TypeConfig
	}{
		{TypeVideo, &d.config.Video},
		{TypeAudio, &d.config.Audio},
		{TypeImage, &d.config.Image},
		{TypePDF, &d.config.PDF},
	}
}

// Detect returns the media type of rawURL and its MIME type. Unknown
// resources yield TypeUnknown and an empty MIME type.
func (d *TypeDetector) Detect(rawURL string) (Type, string) {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	ext := extension(lower)

	if ext != "" {
		for _, o := range d.ordered() {
			if mime, ok := o.cfg.MIME[ext]; ok {
				return o.typ, mime
			}
		}
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		for _, o := range d.ordered() {
			if matchesPattern(lower, o.cfg.URLPatterns) {
				return o.typ, o.cfg.DefaultMIME
			}
		}
	}

	return TypeUnknown, ""
}

func (d *TypeDetector) DetectType(rawURL string) Type {
	t, _ := d.Detect(rawURL)
	return t
}

// MIMEType returns the MIME type for rawURL, or "" when unknown.
func (d *TypeDetector) MIMEType(rawURL string) string {
	_, mime := d.Detect(rawURL)
	return mime
}

// extension returns the lower-case extension of the URL path without the
// dot, ignoring query strings and fragments.
func extension(lower string) string {
	p := lower
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		p = u.Path
	} else {
		if i := strings.IndexAny(p, "?#"); i != -1 {
			p = p[:i]
		}
	}
	return strings.TrimPrefix(path.Ext(p), ".")
}

func matchesPattern(u string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(u, pattern) {
			return true
		}
	}
	return false
}
