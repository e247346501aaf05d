// Package parser turns uploaded documents into per-page plain text.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnsupported is returned by ForFile for unknown extensions.
var ErrUnsupported = errors.New("unsupported file extension")

// Source yields the raw text of a document one page at a time.
type Source interface {
	PageCount() (int, error)
	PageText(page int) (string, error)
	Close() error
}

// Options tunes how sources are opened.
type Options struct {
	// FallbackPdftotext shells out to poppler when the Go PDF reader fails.
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile opens the appropriate source for a filename. The caller must Close it.
func ForFile(filename string, data []byte, opts Options) (Source, error) {
	var (
		src Source
		err error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		src = TextPages(data)
	case ".md", ".markdown":
		src, err = MarkdownPages(data)
	case ".csv":
		src, err = CSVPages(data)
	case ".html", ".htm":
		src, err = HTMLPages(data)
	case ".pdf":
		src, err = OpenPDF(data, opts.FallbackPdftotext)
	case ".docx":
		src, err = DOCXPages(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}
	return cleaned{src}, nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Pages is an in-memory Source; element i holds page i+1.
type Pages []string

func (p Pages) PageCount() (int, error) { return len(p), nil }

func (p Pages) PageText(page int) (string, error) {
	if page < 1 || page > len(p) {
		return "", fmt.Errorf("page %d out of range [1,%d]", page, len(p))
	}
	return p[page-1], nil
}

func (Pages) Close() error { return nil }

type cleaned struct{ Source }

func (c cleaned) PageText(page int) (string, error) {
	text, err := c.Source.PageText(page)
	if err != nil {
		return "", err
	}
	return Clean(text), nil
}

// Clean NFC-normalises text and removes zero-width characters that PDF and
// Word exports tend to scatter through words.
func Clean(text string) string {
	text = norm.NFC.String(text)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, text)
}

// TextPages splits plain text into pages on form feeds.
func TextPages(data []byte) Pages {
	return Pages(strings.Split(string(data), "\f"))
}
