package pdfextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("only .pdf and .txt files are supported")

// ExtractText reads a whole PDF from r and returns its plain text. A PDF
// without extractable text yields "".
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}

// ExtractFile picks the extractor from the file extension and returns text
// with whitespace runs collapsed to single spaces.
func ExtractFile(filename string, r io.Reader) (string, error) {
	var raw string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := ExtractText(r)
		if err != nil {
			return "", err
		}
		raw = text
	case ".txt":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read text file failed: %w", err)
		}
		if !utf8.Valid(b) {
			return "", errors.New("text file is not valid UTF-8")
		}
		raw = string(b)
	default:
		return "", ErrUnsupportedType
	}
	return Normalize(raw), nil
}

func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
