/*
Package storage implements the solution archive over S3-compatible object storage.
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Client implements the ArchiveService interface, handling interactions with S3-compatible storage.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
}

// newS3Client initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		log.Printf("Failed to load AWS SDK config: %v", err)
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Put uploads an object body under the given key.
func (c *s3Client) Put(ctx context.Context, key string, contentType string, body []byte) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.BucketName,
		Key:         &key,
		ContentType: &contentType,
		Body:        bytes.NewReader(body),
	})

	if err != nil {
		log.Printf("S3 upload failed for key %s: %v", key, err)
		return errors.New("failed to store object")
	}

	return nil
}

// PresignDownload generates a presigned URL for downloading the specified object key.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.s3Client)

	presignInput := &s3.GetObjectInput{
		Bucket: &c.cfg.BucketName,
		Key:    &key,
	}

	resp, err := presignClient.PresignGetObject(ctx, presignInput, s3.WithPresignExpires(duration))
	if err != nil {
		log.Printf("Failed to generate presigned URL for key %s: %v", key, err)
		return "", errors.New("failed to generate presigned URL")
	}

	return resp.URL, nil
}

// Exists reports whether an object is stored under the given key.
func (c *s3Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &c.cfg.BucketName,
		Key:    &key,
	})

	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		log.Printf("Failed to head S3 object for key %s: %v", key, err)
		return false, errors.New("failed to check object existence")
	}

	return true, nil
}

// Delete removes the object stored under the given key from the bucket.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.cfg.BucketName,
		Key:    &key,
	})

	if err != nil {
		log.Printf("S3 delete failed for key %s: %v", key, err)
		return errors.New("failed to delete object from S3")
	}

	return nil
}
