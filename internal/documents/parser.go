// Package documents extracts text from uploaded files and turns it into
// categorised, identified chunks ready for indexing.
package documents

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrUnsupportedFormat rejects file types the extraction step does not
// recognise, before chunking ever runs.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extract returns the plain text of a document, dispatching on the file
// extension. PDF pages are prefixed with a "[Page N]" marker so page
// numbers can be recovered for source citations later.
func Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".txt":
		return extractTXT(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Supported reports whether the filename has an extractable extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".txt":
		return true
	}
	return false
}

func extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[Page %d]\n%s\n", i+1, text)
	}
	return strings.TrimSpace(b.String()), nil
}

func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

// docx word/document.xml structure, reduced to the text-bearing elements.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []docxText `xml:"t"`
}

type docxText struct {
	Value string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

func extractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document part: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document part: %w", err)
		}
		return parseDocumentXML(data)
	}
	return "", fmt.Errorf("failed to parse DOCX: missing word/document.xml")
}

// parseDocumentXML collects paragraph text line by line, then table rows
// with cell text joined by " | ".
func parseDocumentXML(data []byte) (string, error) {
	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document XML: %w", err)
	}

	var lines []string
	for _, p := range doc.Body.Paragraphs {
		if text := paragraphText(p); text != "" {
			lines = append(lines, text)
		}
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, p := range cell.Paragraphs {
					if text := paragraphText(p); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if len(cellParts) > 0 {
					cells = append(cells, strings.Join(cellParts, " "))
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func paragraphText(p docxParagraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			b.WriteString(t.Value)
		}
	}
	return strings.TrimSpace(b.String())
}
