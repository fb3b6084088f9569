package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/store"
	"CT-SIGN/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateService(t *testing.T, objects ObjectStore) *TemplateService {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewTemplateService(store.NewTemplateStore(db), objects, quietLogger())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func TestTemplateCreateValidation(t *testing.T) {
	svc := newTemplateService(t, nil)
	ctx := context.Background()

	cases := map[string]TemplateInput{
		"blank name":        {Name: " ", Category: domain.CategorySale, Content: "<p>x</p>"},
		"unknown category":  {Name: "T", Category: "lease", Content: "<p>x</p>"},
		"empty content":     {Name: "T", Category: domain.CategorySale, Content: "  "},
		"lowercase token":   {Name: "T", Category: domain.CategorySale, Content: "<p>{{cliente}}</p>"},
		"bad field name":    {Name: "T", Category: domain.CategorySale, Content: "<p>x</p>", Fields: []domain.TemplateField{{Name: "valor"}}},
		"bad field type":    {Name: "T", Category: domain.CategorySale, Content: "<p>x</p>", Fields: []domain.TemplateField{{Name: "VALOR", Type: "money"}}},
		"duplicated fields": {Name: "T", Category: domain.CategorySale, Content: "<p>x</p>", Fields: []domain.TemplateField{{Name: "VALOR"}, {Name: "VALOR"}}},
	}
	for name, in := range cases {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}

func TestTemplateLifecycle(t *testing.T) {
	svc := newTemplateService(t, nil)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, TemplateInput{
		Name:     "Locação",
		Category: domain.CategoryRental,
		Content:  "<p>{{LOCATARIO}} aluga por {{VALOR}} a partir de {{INICIO}}. {{LOCATARIO}}</p>",
		Fields:   []domain.TemplateField{{Name: "INICIO", Type: domain.FieldDate, Required: true}, {Name: "OBS"}},
	})
	require.NoError(t, err)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, domain.FieldText, tpl.Fields[1].Type)

	names, err := svc.Placeholders(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"LOCATARIO", "VALOR", "INICIO"}, names)

	updated, err := svc.Update(ctx, tpl.ID, TemplateInput{
		Name:     "Locação residencial",
		Category: domain.CategoryRental,
		Content:  "<p>{{LOCATARIO}}</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Locação residencial", updated.Name)

	got, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>{{LOCATARIO}}</p>", got.Content)
	assert.Empty(t, got.Fields)

	require.NoError(t, svc.SetActive(ctx, tpl.ID, false))
	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Update(ctx, "missing", TemplateInput{Name: "x", Category: domain.CategoryOther, Content: "<p/>"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.SetActive(ctx, "missing", true), domain.ErrNotFound)
}

func TestImportDocxArchivesSource(t *testing.T) {
	objects := newMemoryObjects()
	svc := newTemplateService(t, objects)
	ctx := context.Background()
	data := buildDocx(t, "Contrato de venda", "Comprador: {{COMPRADOR}}", "Valor: {{VALOR}} & taxas")

	tpl, err := svc.ImportDocx(ctx, "", domain.CategorySale, "venda padrao.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "venda padrao", tpl.Name)
	assert.Equal(t, "<p>Contrato de venda</p>\n<p>Comprador: {{COMPRADOR}}</p>\n<p>Valor: {{VALOR}} &amp; taxas</p>\n", tpl.Content)
	assert.Equal(t, "templates/"+tpl.ID+"/1700000000_venda_padrao.docx", tpl.SourcePath)

	stored, ok := objects.get(tpl.SourcePath)
	require.True(t, ok)
	assert.Equal(t, data, stored)

	got, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.SourcePath, got.SourcePath)
}

func TestImportDocxWithoutStorage(t *testing.T) {
	svc := newTemplateService(t, nil)
	tpl, err := svc.ImportDocx(context.Background(), "Serviço", domain.CategoryService, "s.docx", buildDocx(t, "{{PRESTADOR}}"))
	require.NoError(t, err)
	assert.Empty(t, tpl.SourcePath)

	failing := newMemoryObjects()
	failing.failing = true
	svc = newTemplateService(t, failing)
	tpl, err = svc.ImportDocx(context.Background(), "Serviço", domain.CategoryService, "s.docx", buildDocx(t, "{{PRESTADOR}}"))
	require.NoError(t, err)
	assert.Empty(t, tpl.SourcePath)
}

func TestImportDocxRejectsGarbage(t *testing.T) {
	svc := newTemplateService(t, nil)
	_, err := svc.ImportDocx(context.Background(), "x", domain.CategoryOther, "x.docx", []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ImportDocx(context.Background(), "x", domain.CategoryOther, "x.docx", buildDocx(t, "{{minusculo}}"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, strings.Contains(err.Error(), "minusculo"))
}
