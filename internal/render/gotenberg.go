package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"

	"CT-SIGN/internal/domain"
)

// GotenbergRenderer assembles the contract as an HTML page and lets a
// Gotenberg instance print it with Chromium. Page slicing is left to the
// browser print engine; signature blocks use break-inside: avoid.
type GotenbergRenderer struct {
	client *gotenberg.Client
	loc    *time.Location
	now    func() time.Time
}

func NewGotenbergRenderer(url string, timeout time.Duration, loc *time.Location) (*GotenbergRenderer, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := gotenberg.NewClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GotenbergRenderer{client: client, loc: loc, now: time.Now}, nil
}

func (r *GotenbergRenderer) Render(ctx context.Context, snapshot domain.ContractSnapshot) (*Document, error) {
	generatedAt := r.now()
	page, err := BuildHTML(snapshot, generatedAt, r.loc)
	if err != nil {
		return nil, err
	}

	index, err := document.FromString("index.html", page)
	if err != nil {
		return nil, renderError("build html document: %v", err)
	}
	req := gotenberg.NewHTMLRequest(index)

	resp, err := r.client.Send(ctx, req)
	if err != nil {
		return nil, renderError("gotenberg: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, renderError("gotenberg returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, renderError("read gotenberg response: %v", err)
	}

	return &Document{
		Filename:    Filename(snapshot.Contract.Title, generatedAt),
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

type htmlBlock struct {
	Ordinal  int
	Creator  bool
	Name     string
	Email    string
	SignedAt string
	ID       string
	Image    template.URL
}

type htmlPage struct {
	Title       string
	GeneratedAt string
	ContractID  string
	Content     template.HTML
	Blocks      []htmlBlock
	Assurances  [3]string
}

var pageTemplate = template.Must(template.New("contract").Parse(`<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
@page { size: A4; margin: 20mm 20mm 25mm 20mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; }
.meta { font-size: 9pt; color: #555; }
.sig { break-inside: avoid; border-bottom: 1px solid #ddd; padding: 8px 0; }
.badge { background: #1e40af; color: #fff; font-size: 8pt; padding: 1px 6px; margin-left: 6px; }
.box { width: 60mm; height: 25mm; border: 1px solid #ccc; display: flex; align-items: center; justify-content: center; }
.box img { max-width: 100%; max-height: 100%; }
.assurance { font-size: 8pt; color: #5a5a5a; font-style: italic; margin: 0; }
footer { position: fixed; bottom: -15mm; width: 100%; text-align: center; font-size: 8pt; color: #6e6e6e; }
</style></head><body>
<footer>Gerado em {{.GeneratedAt}} - Contrato {{.ContractID}}</footer>
<h1>{{.Title}}</h1>
<p class="meta">Gerado em {{.GeneratedAt}}</p>
<div class="content">{{.Content}}</div>
{{if .Blocks}}<h2>Assinaturas</h2>{{end}}
{{range .Blocks}}<div class="sig">
<strong>Assinatura {{.Ordinal}}</strong>{{if .Creator}}<span class="badge">CRIADOR</span>{{end}}
<p>Nome: {{.Name}}<br>E-mail: {{.Email}}<br>Assinado em: {{.SignedAt}}<br>ID do signatário: {{.ID}}</p>
<div class="box"><img src="{{.Image}}" alt="assinatura"></div>
{{range $.Assurances}}<p class="assurance">{{.}}</p>{{end}}
</div>{{end}}
</body></html>`))

// BuildHTML renders the printable page. Contract content is already
// escaped markup and is embedded as is.
func BuildHTML(snapshot domain.ContractSnapshot, generatedAt time.Time, loc *time.Location) (string, error) {
	page := htmlPage{
		Title:       snapshot.Contract.Title,
		GeneratedAt: FormatTimestamp(generatedAt, loc),
		ContractID:  snapshot.Contract.ID,
		Content:     template.HTML(snapshot.Contract.Content),
		Assurances:  AssuranceLines,
	}
	for i, s := range SignedBlocks(snapshot.Signatories) {
		img, err := DecodeSignature(s.Signature)
		if err != nil {
			return "", fmt.Errorf("signatory %s: %w", s.ID, err)
		}
		signedAt := "-"
		if s.SignedAt != nil {
			signedAt = FormatTimestamp(*s.SignedAt, loc)
		}
		page.Blocks = append(page.Blocks, htmlBlock{
			Ordinal:  i + 1,
			Creator:  s.IsCreator,
			Name:     s.Name,
			Email:    s.Email,
			SignedAt: signedAt,
			ID:       s.ID,
			Image:    template.URL(img.DataURL()),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return "", renderError("execute html template: %v", err)
	}
	return buf.String(), nil
}
