package render

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// SignatureImage is a decoded signature ready for embedding.
type SignatureImage struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// DecodeSignature accepts a data URL ("data:image/png;base64,...") or bare
// base64 and checks that it holds a PNG, JPEG or GIF image.
func DecodeSignature(raw string) (*SignatureImage, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, renderError("signature is not a base64 data URL")
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, renderError("signature is not valid base64: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, renderError("signature is not a supported image: %v", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, renderError("signature image is empty")
	}

	return &SignatureImage{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// FitBox scales the image into a w x h box keeping its aspect ratio.
func (img *SignatureImage) FitBox(w, h float64) (float64, float64) {
	ratio := float64(img.Width) / float64(img.Height)
	if w/h > ratio {
		return h * ratio, h
	}
	return w, w / ratio
}

// DataURL re-encodes the image for HTML embedding.
func (img *SignatureImage) DataURL() string {
	return "data:image/" + img.Format + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
