package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the result of splitting a Markdown source file: the parsed YAML
// header and the remaining Markdown body.
//
// Data preserves key case exactly as authored; consumers that need
// case-insensitive lookup (the metadata normalizer, component props) do their
// own folding.
type Document struct {
	Data    map[string]any
	Content []byte
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// ErrMalformedFrontmatter indicates the YAML header could not be parsed.
var ErrMalformedFrontmatter = errors.New("malformed yaml frontmatter")

// Parse splits a raw Markdown file into its `---` delimited YAML header and
// body. A document without a header yields an empty Data map and the full
// input as Content. Both \n and \r\n delimited files are accepted.
func Parse(raw []byte) (Document, error) {
	header, body, had, err := split(raw)
	if err != nil {
		return Document{}, err
	}
	if !had {
		return Document{Data: map[string]any{}, Content: body}, nil
	}

	data, err := parseYAML(header)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedFrontmatter, err)
	}
	return Document{Data: data, Content: body}, nil
}

// split separates the raw header bytes from the body. had reports whether a
// frontmatter block was present at all.
func split(raw []byte) (header, body []byte, had bool, err error) {
	nl := detectNewline(raw)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(raw, open) {
		return nil, raw, false, nil
	}

	start := len(open)
	// An immediately closed block (`---\n---\n`) is an empty header.
	if bytes.HasPrefix(raw[start:], open) {
		return []byte{}, raw[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(raw[start:], closeSeq)
	if idx < 0 {
		// Tolerate a file that ends exactly at the closing delimiter.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(raw[start:], tail) {
			return raw[start : len(raw)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	headerEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return raw[start:headerEnd], raw[bodyStart:], true, nil
}

func parseYAML(header []byte) (map[string]any, error) {
	if len(header) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(raw []byte) string {
	for i := 0; i+1 < len(raw); i++ {
		if raw[i] == '\r' && raw[i+1] == '\n' {
			return "\r\n"
		}
		if raw[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
