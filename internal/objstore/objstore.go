package objstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/yoonlab/speakwise/pkg/core/config"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// Client uploads snapshot JSON to an S3-compatible object store. It is an
// optional capability: New returns nil when the configuration is absent,
// and every call site must tolerate a nil client.
type Client struct {
	mc     *minio.Client
	bucket string
	logger *logging.Logger
}

// New creates an object store client, or nil when the capability is not
// configured.
func New(cfg config.ObjectStoreConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &Client{
		mc:     mc,
		bucket: cfg.Bucket,
		logger: logging.New("objstore"),
	}, nil
}

// PutSnapshot uploads snapshot JSON under <session>/<id>.json and returns
// the object URL.
func (c *Client) PutSnapshot(ctx context.Context, sessionID, id string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s.json", sessionID, id)

	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", c.mc.EndpointURL(), c.bucket, key)
	c.logger.Debug("Snapshot uploaded", "key", key, "bytes", len(data))
	return url, nil
}
