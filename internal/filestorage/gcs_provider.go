package filestorage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

// GCSLinkSigner produces V4 signed URLs with a service account key.
type GCSLinkSigner struct {
	bucket     string
	accessID   string
	privateKey []byte
	now        func() time.Time
}

// NewGCSLinkSigner takes the service account email and its PEM private key.
func NewGCSLinkSigner(bucket, accessID string, privateKey []byte) (*GCSLinkSigner, error) {
	switch {
	case bucket == "":
		return nil, errors.New("GCS_BUCKET_NAME is not set")
	case accessID == "":
		return nil, errors.New("GCS_ACCESS_ID is not set")
	case len(privateKey) == 0:
		return nil, errors.New("GCS_PRIVATE_KEY_FILE is not set or empty")
	}
	return &GCSLinkSigner{bucket: bucket, accessID: accessID, privateKey: privateKey, now: time.Now}, nil
}

func (g *GCSLinkSigner) SignedURL(_ context.Context, objectKey string, ttl time.Duration) (string, error) {
	url, err := storage.SignedURL(g.bucket, objectKey, &storage.SignedURLOptions{
		GoogleAccessID: g.accessID,
		PrivateKey:     g.privateKey,
		Method:         http.MethodGet,
		Expires:        g.now().Add(ttl),
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign gcs object %s/%s: %w", g.bucket, objectKey, err)
	}
	return url, nil
}
