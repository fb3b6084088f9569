// Package render produces the PDF artifact of a contract: the resolved
// content followed by one block per signed party.
package render

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
)

const ContentTypePDF = "application/pdf"

// Renderer turns a contract snapshot into a PDF. It never changes stored
// state.
type Renderer interface {
	Render(ctx context.Context, snapshot domain.ContractSnapshot) (*Document, error)
}

type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AssuranceLines are printed under every signature block.
var AssuranceLines = [3]string{
	"Assinatura eletrônica registrada com data e hora.",
	"Endereço IP e dispositivo registrados na trilha de auditoria.",
	"Documento vinculado ao identificador único do signatário.",
}

var unsafeFilenameRE = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Filename derives "<sanitized title>_<unix millis>.pdf".
func Filename(title string, now time.Time) string {
	base := strings.Trim(unsafeFilenameRE.ReplaceAllString(title, "_"), "_")
	if base == "" {
		base = "contrato"
	}
	return fmt.Sprintf("%s_%d.pdf", base, now.UnixMilli())
}

// SignedBlocks returns the signatories that get a signature block: signed,
// with an image, in signing order.
func SignedBlocks(signatories []domain.Signatory) []domain.Signatory {
	blocks := make([]domain.Signatory, 0, len(signatories))
	for _, s := range signatories {
		if s.Signed() && strings.TrimSpace(s.Signature) != "" {
			blocks = append(blocks, s)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].OrderIndex < blocks[j].OrderIndex })
	return blocks
}

// FormatTimestamp uses the Brazilian day/month/year convention.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 15:04:05")
}

func renderError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrRenderFailed, fmt.Sprintf(format, args...))
}
