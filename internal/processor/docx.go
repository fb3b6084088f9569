package processor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"
)

const documentXMLPath = "word/document.xml"

// DocxProcessor turns the body of a .docx file into contract markup.
type DocxProcessor struct {
	data       []byte
	paragraphs []string
}

func NewDocxProcessor(data []byte) *DocxProcessor {
	return &DocxProcessor{data: data}
}

// Parse reads word/document.xml and collects paragraph text. Runs are joined
// per paragraph, which also rejoins placeholders that Word split across runs.
func (dp *DocxProcessor) Parse() error {
	reader, err := zip.NewReader(bytes.NewReader(dp.data), int64(len(dp.data)))
	if err != nil {
		return fmt.Errorf("failed to open docx file: %w", err)
	}

	var document *zip.File
	for _, f := range reader.File {
		if f.Name == documentXMLPath {
			document = f
			break
		}
	}
	if document == nil {
		return fmt.Errorf("docx file has no %s", documentXMLPath)
	}

	rc, err := document.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", documentXMLPath, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", documentXMLPath, err)
	}
	dp.paragraphs = paragraphs
	return nil
}

func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					current.WriteString("\t")
				}
			case "br":
				if inPara {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// Markup returns one <p> per non-empty paragraph.
func (dp *DocxProcessor) Markup() string {
	var b strings.Builder
	for _, p := range dp.paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		escaped := html.EscapeString(p)
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
		b.WriteString("<p>")
		b.WriteString(escaped)
		b.WriteString("</p>\n")
	}
	return b.String()
}
