package parser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func init() {
	// pdfcpu otherwise creates a config dir under the user's home.
	api.DisableConfigDir()
}

// PDFSource reads PDF pages lazily. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFSource struct {
	FallbackPdftotext bool

	path   string
	file   *os.File
	reader *pdflib.Reader
	pages  int
}

// OpenPDF spools data to a temp file and counts its pages.
func OpenPDF(data []byte, fallback bool) (*PDFSource, error) {
	// Both PDF libraries want a file, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	s := &PDFSource{FallbackPdftotext: fallback, path: tmp.Name()}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(s.path)
	if err == nil {
		s.file, s.reader = f, reader
	} else if !fallback {
		s.Close()
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	if s.pages, err = s.countPages(); err != nil {
		s.Close()
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}
	return s, nil
}

func (s *PDFSource) PageCount() (int, error) { return s.pages, nil }

// PageText returns the plain text of one 1-based page.
func (s *PDFSource) PageText(page int) (string, error) {
	if page < 1 || page > s.pages {
		return "", fmt.Errorf("page %d out of range [1,%d]", page, s.pages)
	}
	var err error
	if s.reader != nil {
		var text string
		if text, err = s.readPage(page); err == nil {
			return text, nil
		}
	} else {
		err = errors.New("pdf reader unavailable")
	}
	if !s.FallbackPdftotext {
		return "", err
	}
	text, ferr := pdftotextPage(s.path, page)
	if ferr != nil {
		return "", errors.Join(err, ferr)
	}
	return text, nil
}

// Close releases the reader and removes the temp file.
func (s *PDFSource) Close() error {
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	if s.path != "" {
		if rerr := os.Remove(s.path); rerr != nil && !os.IsNotExist(rerr) {
			err = errors.Join(err, rerr)
		}
		s.path = ""
	}
	return err
}

func (s *PDFSource) readPage(page int) (text string, err error) {
	// The content stream interpreter panics on some malformed fonts.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page %d: %v", page, r)
		}
	}()
	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d has no content", page)
	}
	return p.GetPlainText(nil)
}

func (s *PDFSource) countPages() (int, error) {
	ctx, err := api.ReadContextFile(s.path)
	if err == nil {
		return ctx.PageCount, nil
	}
	if s.reader != nil {
		return s.reader.NumPage(), nil
	}
	return pdfinfoPages(s.path)
}

func pdfinfoPages(path string) (int, error) {
	out, err := exec.Command("pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if n, err := strconv.Atoi(fields[1]); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("could not determine page count from pdfinfo")
}

func pdftotextPage(path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, err := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.TrimRight(string(out), "\f"), nil
}
