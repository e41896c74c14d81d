package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

type TextExtractor interface {
	ExtractText(file DocumentFile) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// ExtractText implements TextExtractor.
func (e *textExtractor) ExtractText(file DocumentFile) (string, error) {
	var (
		text string
		err  error
	)

	switch DetectContentType(file.Name, file.ContentType) {
	case ContentTypePlainText:
		text = string(file.Data)
	case ContentTypePDF:
		text, err = extractPDFText(file.Data)
	case ContentTypeDOCX:
		text, err = extractDocxText(file.Data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.ContentType)
	}
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", fmt.Errorf("no text content found in %s", file.Name)
	}
	return text, nil
}

// DetectContentType resolves the content type of an upload, falling back to
// the file extension when the declared type is missing or generic.
func DetectContentType(filename, declared string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0])) {
	case ContentTypePDF:
		return ContentTypePDF
	case ContentTypeDOCX:
		return ContentTypeDOCX
	case ContentTypePlainText:
		return ContentTypePlainText
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF
	case ".docx":
		return ContentTypeDOCX
	case ".txt":
		return ContentTypePlainText
	}
	return declared
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	return xmlTagPattern.ReplaceAllString(content, ""), nil
}

// CleanText trims every line and drops empty ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
