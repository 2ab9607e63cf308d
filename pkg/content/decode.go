package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// Format is the serialisation of a source payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format by file extension, defaulting to JSON.
func FormatFromPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FormatFromContentType picks a format from an HTTP Content-Type header,
// falling back to the given format when the header is inconclusive.
func FormatFromContentType(contentType string, fallback Format) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "json"):
		return FormatJSON
	default:
		return fallback
	}
}

// DecodeOptions tune Decode.
type DecodeOptions struct {
	// Strict rejects unknown fields.
	Strict bool
}

// Decode parses a payload into a source. The id is attached to the result.
func Decode(sourceID string, data []byte, format Format) (*scene.Source, error) {
	return DecodeWith(sourceID, data, format, DecodeOptions{})
}

// DecodeWith parses a payload into a source with the given options.
func DecodeWith(sourceID string, data []byte, format Format, opts DecodeOptions) (*scene.Source, error) {
	var src scene.Source

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(opts.Strict)
		if err := dec.Decode(&src); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", scene.ErrMalformedSource, sourceID, err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, trailingData(sourceID, err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		if opts.Strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&src); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", scene.ErrMalformedSource, sourceID, err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, trailingData(sourceID, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unknown format %q", scene.ErrMalformedSource, sourceID, format)
	}

	if src.Scenes == nil {
		return nil, fmt.Errorf("%w: %s: missing scenes", scene.ErrMalformedSource, sourceID)
	}

	src.ID = sourceID
	return &src, nil
}

// trailingData reports content after the first value or document.
func trailingData(sourceID string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s: unexpected content after the first document", scene.ErrMalformedSource, sourceID)
	}
	return fmt.Errorf("%w: %s: unexpected content after the first document: %v", scene.ErrMalformedSource, sourceID, err)
}
