package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/config"
)

// maxImageBytes caps how much of a remote image gets mirrored.
const maxImageBytes = 10 << 20

// ImageStore mirrors recipe images from their source site into an S3 bucket.
type ImageStore struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewImageStore creates an ImageStore. Returns nil when no bucket is
// configured, which disables image mirroring.
func NewImageStore(cfg *config.Config) *ImageStore {
	if cfg.EnvVars.S3Bucket == "" {
		return nil
	}
	return &ImageStore{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// newS3Client creates a new S3 client from the app config.
// When AWS access key and secret are provided, static credentials are used;
// otherwise the default credential chain is preserved (IAM role, instance
// profile, etc.) so ECS/EC2 task roles work without explicit keys.
func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.EnvVars.AWSRegion),
	}

	if cfg.EnvVars.AWSAccessKeyID != "" && cfg.EnvVars.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.EnvVars.AWSAccessKeyID,
			cfg.EnvVars.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// UploadRecipeImage downloads the image at sourceURL and uploads it to the
// configured bucket, returning the stored object's URL.
func (st *ImageStore) UploadRecipeImage(ctx context.Context, recipeID uuid.UUID, sourceURL string) (string, error) {
	imgBytes, err := st.downloadImage(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	client, err := newS3Client(ctx, st.cfg)
	if err != nil {
		return "", err
	}

	uploader := manager.NewUploader(client)
	result, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(st.cfg.EnvVars.S3Bucket),
		Key:    aws.String(generateImageKey(recipeID)),
		Body:   bytes.NewReader(imgBytes),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return result.Location, nil
}

// downloadImage fetches the source image, bounded by maxImageBytes.
func (st *ImageStore) downloadImage(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := st.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// generateImageKey generates the S3 key for a recipe image.
func generateImageKey(recipeID uuid.UUID) string {
	return fmt.Sprintf("recipe-images/%s.jpg", recipeID)
}
