package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	bucketName string
}

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Bucket     string `json:"bucket"`
	Size       int64  `json:"size"`
}

func NewGCSClient(ctx context.Context, bucketName, projectID, credentialsPath string) (*GCSClient, error) {
	var client *storage.Client
	var err error

	if credentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (g *GCSClient) Upload(ctx context.Context, reader io.Reader, objectName, contentType string, metadata map[string]string) (*UploadResult, error) {
	obj := g.client.Bucket(g.bucketName).Object(objectName)
	writer := obj.NewWriter(ctx)

	if contentType != "" {
		writer.ContentType = contentType
	}
	writer.Metadata = metadata

	size, err := io.Copy(writer, reader)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to copy data to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		Bucket:     g.bucketName,
		Size:       size,
	}, nil
}

func (g *GCSClient) SignedURL(objectName string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}

	return g.client.Bucket(g.bucketName).SignedURL(objectName, opts)
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func cleanName(filename string) string {
	name := unsafeObjectChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		return "file"
	}
	return name
}

// TemplateSourceObjectName places an imported template source under
// templates/<id>/.
func TemplateSourceObjectName(templateID, filename string, now time.Time) string {
	return fmt.Sprintf("templates/%s/%d_%s", templateID, now.Unix(), cleanName(filename))
}

// ContractExportObjectName places an archived PDF snapshot under
// contracts/<id>/exports/.
func ContractExportObjectName(contractID, filename string) string {
	return fmt.Sprintf("contracts/%s/exports/%s", contractID, cleanName(filename))
}
