package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/render"
	"CT-SIGN/internal/storage"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signaturePNG(t testing.TB) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for x := 10; x < 110; x++ {
		img.Set(x, 20+(x%7)-3, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func buildDocx(t testing.TB, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, html.EscapeString(p))
	}
	xml := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// recordingRenderer renders with the native engine and keeps the last
// snapshot it was given.
type recordingRenderer struct {
	mu    sync.Mutex
	inner render.Renderer
	err   error
	last  domain.ContractSnapshot
	calls int
}

func (r *recordingRenderer) Render(ctx context.Context, snap domain.ContractSnapshot) (*render.Document, error) {
	r.mu.Lock()
	r.last = snap
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.inner.Render(ctx, snap)
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failing bool
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte)}
}

func (m *memoryObjects) Upload(_ context.Context, reader io.Reader, objectName, _ string, _ map[string]string) (*storage.UploadResult, error) {
	if m.failing {
		return nil, fmt.Errorf("bucket unavailable")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	return &storage.UploadResult{ObjectName: objectName, Bucket: "test", Size: int64(len(data))}, nil
}

func (m *memoryObjects) SignedURL(objectName string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", objectName, int(expiry.Seconds())), nil
}

func (m *memoryObjects) get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return data, ok
}
