package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	sc "github.com/dmitrijs2005/kvstore/internal/server/config"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/google/uuid"
)

// PresignExpiry bounds the lifetime of the download URL returned by Export.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Lister is the read access an export needs.
type Lister interface {
	List(ctx context.Context, opts models.ListOptions) (*models.ListResult, error)
}

// SnapshotService dumps every entry as one JSON object in an S3 bucket.
type SnapshotService struct {
	entries Lister
	config  *sc.Config
	logger  logging.Logger
	now     func() time.Time
}

func NewSnapshotService(entries Lister, config *sc.Config, l logging.Logger) *SnapshotService {
	return &SnapshotService{
		entries: entries,
		config:  config,
		logger:  l.With("module", "snapshot_service"),
		now:     time.Now,
	}
}

// SnapshotKey places snapshots under a per-day prefix.
func SnapshotKey(t time.Time, id uuid.UUID) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), id)
}

func (s *SnapshotService) getClient(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.config.S3Region),
	}
	if s.config.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// Export lists all entries in key order, uploads them and returns the object
// key together with a presigned download URL.
func (s *SnapshotService) Export(ctx context.Context) (*models.Snapshot, error) {
	res, err := s.entries.List(ctx, models.ListOptions{Sort: models.SortKeyAsc})
	if err != nil {
		return nil, err
	}

	takenAt := s.now()
	body, err := json.Marshal(models.NewSnapshotDocument(takenAt, res))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := SnapshotKey(takenAt, uuid.New())

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot %s: %w", key, err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign snapshot %s: %w", key, err)
	}

	s.logger.Info(ctx, "exported snapshot", "key", key, "count", len(res.Entries))
	return &models.Snapshot{Key: key, Count: int64(len(res.Entries)), URL: req.URL}, nil
}
