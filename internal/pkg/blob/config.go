package blob

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marketmate/marketmate/internal/pkg/env"
)

// Config holds the S3 image store configuration.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // CDN or bucket website base for public image URLs
	Enabled         bool
}

// LoadConfig loads the S3 configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("S3_IMAGES_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the image store is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the image store is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the image store is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the S3 image store is enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates a standardized object key for a listing image.
// Format: listings/<listing uuid>/<image uuid>.<ext>
func (c *Config) ObjectKey(listingUUID, imageUUID, fileExtension string) string {
	return fmt.Sprintf("listings/%s/%s%s", listingUUID, imageUUID, fileExtension)
}

// PublicURL returns the public URL for an object key.
func (c *Config) PublicURL(objectKey string) string {
	base := c.PublicBaseURL
	if base == "" {
		if c.EndpointURL != "" {
			base = fmt.Sprintf("%s/%s", strings.TrimRight(c.EndpointURL, "/"), c.BucketName)
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.BucketName, c.Region)
		}
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), objectKey)
}
