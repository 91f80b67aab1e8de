// Package document turns uploaded exam papers and syllabi into plain text
// and splits exam text into individual questions.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrUnsupportedFormat is returned for anything other than PDF or TXT.
	ErrUnsupportedFormat = errors.New("unsupported file type: only PDF and TXT files are supported")

	// ErrEmptyDocument is returned when a document yields no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Format is a supported input format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatTXT Format = "txt"
)

// DetectFormat resolves the format from the file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".txt":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%q: %w", filename, ErrUnsupportedFormat)
	}
}

// ExtractText returns the trimmed text content of an uploaded file.
func ExtractText(data []byte, filename string) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatTXT:
		text = decodeText(data)
	}
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", filename, ErrEmptyDocument)
	}
	return text, nil
}

// decodeText decodes UTF-8, falling back to Latin-1 for legacy files.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	// Every byte sequence is valid ISO-8859-1, so this cannot fail.
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(out)
}

// extractPDF concatenates the plain text of every page.
func extractPDF(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(content)
		buf.WriteString("\n")
	}
	if buf.Len() == 0 {
		// Some generators only expose text through the document-level reader.
		plain, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("read PDF text: %w", err)
		}
		if _, err := io.Copy(&buf, plain); err != nil {
			return "", fmt.Errorf("read PDF text: %w", err)
		}
	}
	return buf.String(), nil
}
