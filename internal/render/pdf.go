package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"CT-SIGN/internal/domain"
)

// A4 portrait, millimetres.
const (
	pageMargin    = 20.0
	contentWidth  = 210.0 - 2*pageMargin
	contentBottom = 272.0
	lineHeight    = 6.0
	bulletIndent  = 5.0

	sigBoxWidth   = 60.0
	sigBoxHeight  = 25.0
	assuranceLine = 4.5
	// label, name, email, signed at, id, image box, assurances, spacing
	signatureBlockHeight = 5*lineHeight + sigBoxHeight + 3 + 3*assuranceLine + 8
	signatureHeading     = 12.0
)

type textRow struct {
	text   string
	style  string
	size   float64
	indent float64
}

// PDFRenderer draws the contract with fpdf. Content is laid out as rows of
// uniform height and sliced into pages; signature blocks never straddle a
// page break.
type PDFRenderer struct {
	loc *time.Location
	now func() time.Time
}

func NewPDFRenderer(loc *time.Location) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFRenderer{loc: loc, now: time.Now}
}

func (r *PDFRenderer) Render(ctx context.Context, snapshot domain.ContractSnapshot) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generatedAt := r.now()
	pdf, err := r.assemble(snapshot, generatedAt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderError("write pdf: %v", err)
	}

	return &Document{
		Filename:    Filename(snapshot.Contract.Title, generatedAt),
		ContentType: ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

func (r *PDFRenderer) assemble(snapshot domain.ContractSnapshot, generatedAt time.Time) (*fpdf.Fpdf, error) {
	contract := snapshot.Contract
	stamp := FormatTimestamp(generatedAt, r.loc)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(contract.Title, true)
	pdf.SetCreator("CT-SIGN", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		footer := fmt.Sprintf("Gerado em %s - Contrato %s - Página %d", stamp, contract.ID, pdf.PageNo())
		pdf.CellFormat(0, 10, tr(footer), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	for _, line := range pdf.SplitLines([]byte(tr(contract.Title)), contentWidth) {
		pdf.CellFormat(contentWidth, 8, string(line), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentWidth, 6, tr("Gerado em "+stamp), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := contentRows(pdf, tr, contract.Content)
	first := int(math.Floor((contentBottom - pdf.GetY()) / lineHeight))
	perPage := int(math.Floor((contentBottom - pageMargin) / lineHeight))
	for i, slice := range SliceRows(len(rows), first, perPage) {
		if i > 0 {
			pdf.AddPage()
		}
		for _, row := range rows[slice.Start:slice.End] {
			pdf.SetFont("Helvetica", row.style, row.size)
			pdf.SetX(pageMargin + row.indent)
			pdf.CellFormat(contentWidth-row.indent, lineHeight, row.text, "", 1, "L", false, 0, "")
		}
	}

	if err := r.signatureSection(pdf, tr, SignedBlocks(snapshot.Signatories)); err != nil {
		return nil, err
	}

	if pdf.Err() {
		return nil, renderError("assemble pdf: %v", pdf.Error())
	}
	return pdf, nil
}

func contentRows(pdf *fpdf.Fpdf, tr func(string) string, content string) []textRow {
	paragraphs := Paragraphs(content)
	if len(paragraphs) == 0 {
		paragraphs = []Paragraph{{Text: "(contrato sem conteúdo)"}}
	}

	var rows []textRow
	for i, p := range paragraphs {
		style, size, indent := "", 11.0, 0.0
		text := p.Text
		if p.Heading {
			style, size = "B", 12
		}
		if p.Bullet {
			text = "• " + text
			indent = bulletIndent
		}
		pdf.SetFont("Helvetica", style, size)
		for _, line := range pdf.SplitLines([]byte(tr(text)), contentWidth-indent) {
			rows = append(rows, textRow{text: string(line), style: style, size: size, indent: indent})
		}
		if i < len(paragraphs)-1 && !p.Bullet {
			rows = append(rows, textRow{size: size})
		}
	}
	return rows
}

func (r *PDFRenderer) signatureSection(pdf *fpdf.Fpdf, tr func(string) string, blocks []domain.Signatory) error {
	if len(blocks) == 0 {
		return nil
	}

	if !Fits(pdf.GetY(), signatureHeading+signatureBlockHeight, contentBottom) {
		pdf.AddPage()
	} else {
		pdf.Ln(lineHeight)
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth, signatureHeading-2, tr("Assinaturas"), "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	for i, s := range blocks {
		img, err := DecodeSignature(s.Signature)
		if err != nil {
			return fmt.Errorf("signatory %s: %w", s.ID, err)
		}
		if !Fits(pdf.GetY(), signatureBlockHeight, contentBottom) {
			pdf.AddPage()
		}
		r.signatureBlock(pdf, tr, i+1, s, img)
	}
	return nil
}

func (r *PDFRenderer) signatureBlock(pdf *fpdf.Fpdf, tr func(string) string, ordinal int, s domain.Signatory, img *SignatureImage) {
	label := fmt.Sprintf("Assinatura %d", ordinal)
	pdf.SetFont("Helvetica", "B", 11)
	if s.IsCreator {
		w := pdf.GetStringWidth(label) + 2
		pdf.CellFormat(w, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFillColor(30, 64, 175)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(18, lineHeight-1, "CRIADOR", "", 1, "C", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
	} else {
		pdf.CellFormat(contentWidth, lineHeight, label, "", 1, "L", false, 0, "")
	}

	signedAt := "-"
	if s.SignedAt != nil {
		signedAt = FormatTimestamp(*s.SignedAt, r.loc)
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Nome: " + s.Name,
		"E-mail: " + s.Email,
		"Assinado em: " + signedAt,
		"ID do signatário: " + s.ID,
	} {
		pdf.CellFormat(contentWidth, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	name := "sig-" + s.ID
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType(img.Format)}, bytes.NewReader(img.Data))
	w, h := img.FitBox(sigBoxWidth, sigBoxHeight)
	top := pdf.GetY() + 1
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(pageMargin, top, sigBoxWidth, sigBoxHeight, "D")
	pdf.ImageOptions(name, pageMargin+(sigBoxWidth-w)/2, top+(sigBoxHeight-h)/2, w, h, false, fpdf.ImageOptions{ImageType: imageType(img.Format)}, 0, "")
	pdf.SetY(top + sigBoxHeight + 2)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(90, 90, 90)
	for _, line := range AssuranceLines {
		pdf.CellFormat(contentWidth, assuranceLine, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+contentWidth, pdf.GetY())
	pdf.Ln(4)
}

func imageType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	default:
		return "PNG"
	}
}
