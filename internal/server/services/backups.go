package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/netx"
	sc "github.com/dmitrijs2005/weekplanner/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// BackupService hands out presigned object-storage URLs the client uploads
// its compressed snapshots to. The server never sees the snapshot itself.
type BackupService struct {
	config *sc.Config
	now    func() time.Time
}

func NewBackupService(config *sc.Config) *BackupService {
	return &BackupService{config: config, now: time.Now}
}

// BackupKey is the object key of a new snapshot of userID taken at t.
func BackupKey(userID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("backups/%s/%d/%02d/%02d/%s.json.zst", userID, t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *BackupService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		// MinIO serves path-style URLs only.
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *BackupService) PresignBackup(ctx context.Context, userID string) (models.BackupTarget, error) {
	if userID == "" {
		return models.BackupTarget{}, common.ErrorUnauthorized
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return models.BackupTarget{}, err
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := BackupKey(userID, now)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(netx.ContentTypeZstd),
	}, s3.WithPresignExpires(s.config.BackupURLValidity))
	if err != nil {
		return models.BackupTarget{}, err
	}

	return models.BackupTarget{
		Key:       key,
		URL:       req.URL,
		ExpiresAt: now.Add(s.config.BackupURLValidity).UTC(),
	}, nil
}
