package extract

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Text extracts plain text from an uploaded PDF or DOCX file. The branch is
// purely on the file name suffix. Any other suffix or any parse failure is
// logged and returned as an error; no partial text is produced.
func Text(filename string, data []byte) (string, error) {
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		text, err := pdfText(data)
		if err != nil {
			log.Printf("[ERROR] Error extracting text from %s: %v", filename, err)
			return "", err
		}
		return text, nil
	case strings.HasSuffix(filename, ".docx"):
		text, err := docxText(data)
		if err != nil {
			log.Printf("[ERROR] Error extracting text from %s: %v", filename, err)
			return "", err
		}
		return text, nil
	default:
		log.Printf("[WARN] Unsupported file type: %s", filename)
		return "", ErrUnsupportedFormat
	}
}

// pdfText concatenates per-page text, skipping pages that yield none. The
// pdf reader can panic on malformed input; extraction must never take the
// conversation down, so panics are converted to errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}

		if text == "" {
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// docxText concatenates paragraph text in document order.
func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, para.String())
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
