package filestorage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"go.uber.org/zap"
)

// LinkSigner turns a document's storage path into a short-lived download URL.
// The bytes never pass through this service.
type LinkSigner interface {
	SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// DefaultLinkTTL applies when DOWNLOAD_LINK_TTL is unset.
const DefaultLinkTTL = 15 * time.Minute

// DefaultLinkSigner is nil when no object store is configured.
var DefaultLinkSigner LinkSigner

// InitFileStorage selects the signer from FILE_STORAGE_PROVIDER.
// A missing or broken configuration leaves downloads as metadata only.
func InitFileStorage(ctx context.Context) {
	log := applog.L.Named("InitFileStorage")
	cfg := config.Cfg

	var (
		signer LinkSigner
		err    error
	)
	switch strings.ToLower(cfg.FileStorageProvider) {
	case "":
		log.Info("FILE_STORAGE_PROVIDER not set; downloads return metadata only")
		return
	case "s3":
		signer, err = NewS3LinkSignerFromEnv(ctx, cfg.AWSRegion, cfg.AWSS3Bucket)
	case "gcs":
		var key []byte
		if cfg.GCSPrivateKeyFile != "" {
			key, err = os.ReadFile(cfg.GCSPrivateKeyFile)
		}
		if err == nil {
			signer, err = NewGCSLinkSigner(cfg.GCSBucketName, cfg.GCSAccessID, key)
		}
	default:
		err = fmt.Errorf("unsupported provider %q", cfg.FileStorageProvider)
	}
	if err != nil {
		log.Warn("File storage is not usable; downloads return metadata only", zap.Error(err))
		return
	}
	DefaultLinkSigner = signer
	log.Info("Download links enabled", zap.String("provider", cfg.FileStorageProvider))
}

// SignedURL signs objectKey with DefaultLinkSigner. It returns "" when signing is
// disabled or the document has no storage path.
func SignedURL(ctx context.Context, objectKey string) (string, error) {
	if DefaultLinkSigner == nil || objectKey == "" {
		return "", nil
	}
	ttl := config.Cfg.DownloadLinkTTL
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return DefaultLinkSigner.SignedURL(ctx, strings.TrimPrefix(objectKey, "/"), ttl)
}
