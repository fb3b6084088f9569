package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CT-SIGN/internal/limiter"
	"CT-SIGN/internal/render"
	"CT-SIGN/internal/services"
	"CT-SIGN/internal/store"
	"CT-SIGN/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, RouterConfig{}, nil)
}

// newTestServerWith builds the router over a fresh database. cfg supplies
// router options; lim, when set, limits email verification.
func newTestServerWith(t *testing.T, cfg RouterConfig, lim *limiter.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testutil.NewDB(t)
	templateStore := store.NewTemplateStore(db)
	audit := services.NewAuditService(store.NewAuditStore(db), services.NewOriginResolver("", time.Second, logger), logger)

	router := NewRouter(RouterConfig{
		Templates: services.NewTemplateService(templateStore, nil, logger),
		Contracts: services.NewContractService(services.ContractServiceConfig{
			Contracts: store.NewContractStore(db),
			Templates: templateStore,
			Audit:     audit,
			Renderer:  render.NewPDFRenderer(time.UTC),
			Limiter:   lim,
			Logger:    logger,
		}),
		AllowOrigins:     []string{"http://localhost:3000"},
		JWTSecret:        testSecret,
		AllowDevIdentity: true,
		Logger:           logger,
		PublicBaseURL:    cfg.PublicBaseURL,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:51234"
	req.Header.Set("User-Agent", "handler-test")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin(method, path string, body any) *httptest.ResponseRecorder {
	return s.do(method, path, body, map[string]string{"Authorization": "Bearer " + signToken(s.t, testSecret, "user-7")})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func signatureImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 30))
	for x := 0; x < 80; x++ {
		img.Set(x, 15, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (s *testServer) createTemplate() TemplateResponse {
	w := s.admin(http.MethodPost, "/api/v1/templates", gin.H{
		"name":     "Venda",
		"category": "sale",
		"content":  "<p>Cliente: {{CLIENTE_NOME}}</p><p>Valor: {{VALOR}}</p>",
		"fields":   []gin.H{{"name": "VALOR", "type": "number", "required": true}},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[TemplateResponse](s.t, w)
}

func (s *testServer) generate(templateID string) ContractDetailResponse {
	w := s.admin(http.MethodPost, "/api/v1/contracts", gin.H{
		"deal_id":     "deal-1",
		"template_id": templateID,
		"title":       "Venda Maria",
		"variables":   gin.H{"CLIENTE_NOME": "Maria Souza", "VALOR": "45000"},
		"signatories": []gin.H{
			{"name": "Criador", "email": "criador@x.com", "is_creator": true},
			{"name": "Maria Souza", "email": "maria@x.com"},
		},
		"creator_signature": signatureImage(s.t),
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ContractDetailResponse](s.t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/templates", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/templates", nil, map[string]string{"Authorization": "Bearer " + signToken(t, "wrong", "u")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/templates", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/templates", nil, map[string]string{"X-User-ID": "dev-user"})
	assert.Equal(t, http.StatusOK, w.Code)

	tpl := s.createTemplate()
	detail := s.generate(tpl.ID)
	assert.Equal(t, "user-7", detail.Contract.CreatedBy)
}

func TestSigningFlow(t *testing.T) {
	s := newTestServer(t)
	tpl := s.createTemplate()
	assert.Equal(t, []string{"CLIENTE_NOME", "VALOR"}, tpl.Placeholders)

	detail := s.generate(tpl.ID)
	assert.Equal(t, "creator_signed", detail.Contract.Status)
	token := detail.Contract.AccessToken
	require.NotEmpty(t, token)

	w := s.do(http.MethodGet, "/api/v1/public/contracts/"+token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "maria@x.com")
	assert.NotContains(t, w.Body.String(), token)
	public := decode[ContractDetailResponse](t, w)
	assert.Contains(t, public.Contract.Content, "Maria Souza")
	require.Len(t, public.Signatories, 2)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/"+token+"/verify", gin.H{"email": "naoexiste@x.com"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not_authorized", decode[ErrorResponse](t, w).Code)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/"+token+"/verify", gin.H{"email": "criador@x.com"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/"+token+"/verify", gin.H{"email": "Maria@x.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	verified := decode[VerifyEmailResponse](t, w)
	assert.Equal(t, public.Signatories[1].ID, verified.SignatoryID)

	sign := gin.H{
		"signatory_id":    verified.SignatoryID,
		"name":            "Maria Souza",
		"email":           "maria@x.com",
		"signature_image": signatureImage(t),
	}
	w = s.do(http.MethodPost, "/api/v1/public/contracts/"+token+"/sign", sign, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[ContractDetailResponse](t, w).Contract.Status)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/"+token+"/sign", sign, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_signed", decode[ErrorResponse](t, w).Code)

	w = s.admin(http.MethodGet, "/api/v1/contracts/"+detail.Contract.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[ContractDetailResponse](t, w)
	assert.Equal(t, "192.0.2.10", stored.Signatories[1].IPAddress)
	assert.Equal(t, "handler-test", stored.Signatories[1].UserAgent)

	w = s.admin(http.MethodGet, "/api/v1/contracts/"+detail.Contract.ID+"/audit?limit=2&page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode[AuditResponse](t, w)
	assert.EqualValues(t, 4, audit.Total)
	assert.Equal(t, 2, audit.TotalPages)
	require.Len(t, audit.Events, 2)
	assert.Equal(t, "contract_completed", audit.Events[0].Action)
	assert.Equal(t, "signature_completed", audit.Events[1].Action)

	w = s.admin(http.MethodGet, "/api/v1/contracts?deal_id=deal-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), detail.Contract.ID)
}

func TestPublicErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/public/contracts/ctr_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Code)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/ctr_missing/verify", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/public/contracts/ctr_missing/sign", gin.H{"signatory_id": "x", "name": "x", "email": "not-an-email", "signature_image": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateValidationErrors(t *testing.T) {
	s := newTestServer(t)
	tpl := s.createTemplate()

	w := s.admin(http.MethodPost, "/api/v1/contracts", gin.H{
		"deal_id":           "deal-1",
		"template_id":       tpl.ID,
		"title":             "Venda",
		"variables":         gin.H{"VALOR": "abc"},
		"signatories":       []gin.H{{"name": "Criador", "email": "criador@x.com"}},
		"creator_signature": signatureImage(t),
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "invalid_variables", resp.Code)
	assert.Len(t, resp.Fields, 2)

	w = s.admin(http.MethodPost, "/api/v1/contracts", gin.H{
		"deal_id":           "deal-1",
		"template_id":       tpl.ID,
		"title":             "Venda",
		"signatories":       []gin.H{{"name": "Criador", "email": "not-an-email"}},
		"creator_signature": signatureImage(t),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportAndArchive(t *testing.T) {
	s := newTestServer(t)
	detail := s.generate(s.createTemplate().ID)

	w := s.admin(http.MethodGet, "/api/v1/contracts/"+detail.Contract.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Venda_Maria_")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	w = s.do(http.MethodGet, "/api/v1/public/contracts/"+detail.Contract.AccessToken+"/pdf", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.admin(http.MethodPost, "/api/v1/contracts/"+detail.Contract.ID+"/pdf/archive", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "storage_disabled", decode[ErrorResponse](t, w).Code)
}

func TestTemplateImportAndDeactivate(t *testing.T) {
	s := newTestServer(t)

	var docx bytes.Buffer
	zw := zip.NewWriter(&docx)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Locatário: {{LOCA</w:t></w:r><w:r><w:t>TARIO}}</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Locação"))
	require.NoError(t, mw.WriteField("category", "rental"))
	part, err := mw.CreateFormFile("template", "locacao.docx")
	require.NoError(t, err)
	_, err = part.Write(docx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", "dev-user")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tpl := decode[TemplateResponse](t, w)
	assert.Equal(t, []string{"LOCATARIO"}, tpl.Placeholders)
	assert.Equal(t, "rental", tpl.Category)

	w = s.admin(http.MethodPost, "/api/v1/templates/"+tpl.ID+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.admin(http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), tpl.ID)

	w = s.admin(http.MethodGet, "/api/v1/templates?all=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tpl.ID)

	w = s.admin(http.MethodGet, "/api/v1/templates/"+tpl.ID+"/placeholders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"placeholders":["LOCATARIO"]}`, w.Body.String())
}

func TestVerifyIsRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := newTestServerWith(t, RouterConfig{}, limiter.New(rdb, "verify", 2, time.Minute, logger))
	token := s.generate(s.createTemplate().ID).Contract.AccessToken
	verify := "/api/v1/public/contracts/" + token + "/verify"

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, verify, gin.H{"email": "intruso@x.com"}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w := s.do(http.MethodPost, verify, gin.H{"email": "intruso@x.com"}, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
	assert.Equal(t, "too_many_attempts", decode[ErrorResponse](t, w).Code)

	// The right email is refused too until the window passes.
	w = s.do(http.MethodPost, verify, gin.H{"email": "maria@x.com"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(time.Minute + time.Second)
	w = s.do(http.MethodPost, verify, gin.H{"email": "maria@x.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A successful verification clears the counter for this client.
	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, verify, gin.H{"email": "intruso@x.com"}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
}

func TestGenerateReturnsSigningURL(t *testing.T) {
	s := newTestServerWith(t, RouterConfig{PublicBaseURL: "https://assinar.example.com/"}, nil)
	detail := s.generate(s.createTemplate().ID)
	assert.Equal(t, "https://assinar.example.com/sign/"+detail.Contract.AccessToken, detail.SigningURL)

	w := s.admin(http.MethodGet, "/api/v1/contracts/"+detail.Contract.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, detail.SigningURL, decode[ContractDetailResponse](t, w).SigningURL)

	w = s.do(http.MethodGet, "/api/v1/public/contracts/"+detail.Contract.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[ContractDetailResponse](t, w).SigningURL)

	plain := newTestServer(t)
	assert.Empty(t, plain.generate(plain.createTemplate().ID).SigningURL)
}

func TestRequestLengthLimits(t *testing.T) {
	s := newTestServer(t)
	tpl := s.createTemplate()
	long := strings.Repeat("a", 256)

	cases := map[string]gin.H{
		"title": {
			"deal_id": "deal-1", "template_id": tpl.ID, "title": long,
			"signatories":       []gin.H{{"name": "Criador", "email": "criador@x.com"}},
			"creator_signature": signatureImage(t),
		},
		"deal id": {
			"deal_id": strings.Repeat("d", 65), "template_id": tpl.ID, "title": "Venda",
			"signatories":       []gin.H{{"name": "Criador", "email": "criador@x.com"}},
			"creator_signature": signatureImage(t),
		},
		"signatory name": {
			"deal_id": "deal-1", "template_id": tpl.ID, "title": "Venda",
			"signatories":       []gin.H{{"name": long, "email": "criador@x.com"}},
			"creator_signature": signatureImage(t),
		},
	}
	for name, body := range cases {
		w := s.admin(http.MethodPost, "/api/v1/contracts", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w := s.do(http.MethodPost, "/api/v1/contracts", gin.H{
		"deal_id": "deal-1", "template_id": tpl.ID, "title": "Venda",
		"variables":         gin.H{"CLIENTE_NOME": "Maria", "VALOR": "1"},
		"signatories":       []gin.H{{"name": "Criador", "email": "criador@x.com"}},
		"creator_signature": signatureImage(t),
	}, map[string]string{"X-User-ID": strings.Repeat("u", 65)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, w).Code)
}
