package aws_s3

import (
	"bytes"
	"context"
	"log/slog"
	"os"

	"github.com/IliaW/site-crawl-worker/config"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	crd "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BucketClient is the persistence sink contract: idempotent overwrite of one
// object. Failures are logged here and reported to the caller, but the caller
// treats them as best-effort relative to crawl progress.
type BucketClient interface {
	Upload(ctx context.Context, bucket string, key string, data []byte, contentType string) error
}

type S3BucketClient struct {
	client *s3.Client
	cfg    *config.S3Config
	log    *slog.Logger
}

func NewS3BucketClient(cfg *config.S3Config, log *slog.Logger) *S3BucketClient {
	log.Info("connecting to s3...")
	ctx := context.Background()

	sdkConfig, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithCredentialsProvider(crd.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, "")),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithBaseEndpoint(cfg.AwsBaseEndpoint))
	if err != nil {
		log.Error("failed to load s3 config.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// LocalStack and MinIO do not support `virtual host addressing style` that uses s3 by default.
	// For test purposes use configuration with disabled 'virtual hosted bucket addressing'.
	var s3client *s3.Client
	if cfg.AwsAccessKey == "test" || cfg.AwsAccessKey == "minioadmin" {
		log.Warn("test configuration for s3")
		s3client = s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	} else {
		s3client = s3.NewFromConfig(sdkConfig)
	}
	log.Info("connected to s3")

	return &S3BucketClient{
		client: s3client,
		cfg:    cfg,
		log:    log,
	}
}

func (bc *S3BucketClient) Upload(ctx context.Context, bucket string, key string, data []byte,
	contentType string) error {
	_, err := bc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		bc.log.Error("failed to upload object to s3.", slog.String("bucket", bucket),
			slog.String("key", key), slog.String("err", err.Error()))
		return err
	}
	bc.log.Debug("object uploaded to s3.", slog.String("bucket", bucket), slog.String("key", key))

	return nil
}
