// Package s3 implements types.ObjectStorage on AWS S3 (or any S3
// compatible endpoint such as MinIO or LocalStack).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	"vidcatalog/shared/storage/types"
)

// Client implements the ObjectStorage interface for AWS S3.
// Keys are stored below the configured prefix.
type Client struct {
	s3Client *s3.Client
	config   config.S3Config
	logger   observability.Logger
	metrics  observability.Metrics
}

// NewClient creates a new S3 storage client and makes sure the bucket exists
func NewClient(ctx context.Context, cfg *config.ArchiveConfig, logger observability.Logger, metrics observability.Metrics) (*Client, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("invalid S3 configuration: bucket is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg.S3,
		logger:   logger.WithFields(observability.Fields{"storage": "s3", "bucket": cfg.S3.Bucket}),
		metrics:  metrics,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.ensureBucketExists(checkCtx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return client, nil
}

// Put stores an object in S3
func (c *Client) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("s3_put", time.Since(start).Seconds())
	}()

	bucket = c.bucket(bucket)
	objectKey := c.objectKey(key)

	// The SDK needs a seekable body to sign the payload
	body, ok := reader.(io.ReadSeeker)
	if !ok {
		buf := &bytes.Buffer{}
		if _, err := io.Copy(buf, reader); err != nil {
			c.metrics.RecordError("s3_put", "read")
			return fmt.Errorf("failed to read content: %w", err)
		}
		body = bytes.NewReader(buf.Bytes())
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
		Body:   body,
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	if metadata.ContentLength > 0 {
		input.ContentLength = aws.Int64(metadata.ContentLength)
	}
	if metadata.ContentEncoding != "" {
		input.ContentEncoding = aws.String(metadata.ContentEncoding)
	}
	if metadata.CacheControl != "" {
		input.CacheControl = aws.String(metadata.CacheControl)
	}
	if len(metadata.UserMetadata) > 0 {
		input.Metadata = metadata.UserMetadata
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		c.metrics.RecordError("s3_put", "api")
		c.logger.Error(ctx, "failed to put object", err, observability.Fields{"key": objectKey})
		return fmt.Errorf("failed to put object: %w", err)
	}

	c.metrics.RecordSuccess("s3_put")
	c.logger.Debug(ctx, "object stored", observability.Fields{"key": objectKey})

	return nil
}

// Get retrieves an object from S3
func (c *Client) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	body, _, err := c.GetWithMetadata(ctx, bucket, key)
	return body, err
}

// GetWithMetadata retrieves an object along with its metadata
func (c *Client) GetWithMetadata(ctx context.Context, bucket, key string) (io.ReadCloser, *types.ObjectMetadata, error) {
	objectKey := c.objectKey(key)

	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil, types.ErrObjectNotFound
		}
		c.metrics.RecordError("s3_get", "api")
		c.logger.Error(ctx, "failed to get object", err, observability.Fields{"key": objectKey})
		return nil, nil, fmt.Errorf("failed to get object: %w", err)
	}

	metadata := &types.ObjectMetadata{
		ContentType:     aws.ToString(result.ContentType),
		ContentLength:   aws.ToInt64(result.ContentLength),
		ContentEncoding: aws.ToString(result.ContentEncoding),
		CacheControl:    aws.ToString(result.CacheControl),
		LastModified:    aws.ToTime(result.LastModified),
		ETag:            aws.ToString(result.ETag),
		UserMetadata:    result.Metadata,
	}

	c.metrics.RecordSuccess("s3_get")
	return result.Body, metadata, nil
}

// Delete removes an object from S3. S3 deletes are idempotent.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	objectKey := c.objectKey(key)

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFoundError(err) {
		c.metrics.RecordError("s3_delete", "api")
		c.logger.Error(ctx, "failed to delete object", err, observability.Fields{"key": objectKey})
		return fmt.Errorf("failed to delete object: %w", err)
	}

	c.metrics.RecordSuccess("s3_delete")
	c.logger.Debug(ctx, "object deleted", observability.Fields{"key": objectKey})
	return nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// List returns the objects below prefix. Returned keys are relative to
// the configured key prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket(bucket)),
	}
	if full := c.objectKey(prefix); full != "" {
		input.Prefix = aws.String(full)
	}

	var objects []types.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.metrics.RecordError("s3_list", "api")
			c.logger.Error(ctx, "failed to list objects", err, observability.Fields{"prefix": prefix})
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectInfo{
				Key:          c.relativeKey(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
			})
		}
	}

	return objects, nil
}

// CreateBucket creates a new S3 bucket
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}

	// us-east-1 rejects an explicit location constraint
	if c.config.Region != "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		var bae *s3types.BucketAlreadyExists
		var baoyb *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &bae) || errors.As(err, &baoyb) {
			return nil
		}

		c.logger.Error(ctx, "failed to create bucket", err, observability.Fields{"bucket": bucket})
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	c.logger.Info(ctx, "bucket created", observability.Fields{"bucket": bucket})
	return nil
}

// ensureBucketExists checks the configured bucket, creating it when missing
func (c *Client) ensureBucketExists(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			c.logger.Info(ctx, "bucket does not exist, attempting to create", nil)
			return c.CreateBucket(ctx, c.config.Bucket)
		}
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	return nil
}

func (c *Client) bucket(bucket string) string {
	if bucket == "" {
		return c.config.Bucket
	}
	return bucket
}

func (c *Client) objectKey(key string) string {
	prefix := strings.Trim(c.config.Prefix, "/")
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix + "/"
	}
	return path.Join(prefix, key)
}

func (c *Client) relativeKey(key string) string {
	prefix := strings.Trim(c.config.Prefix, "/")
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix+"/")
}

// buildAWSConfig builds the AWS configuration from the archive config
func buildAWSConfig(ctx context.Context, cfg *config.ArchiveConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.S3.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
	}

	// Static credentials win over the default chain when both parts are set
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3.AccessKeyID,
				cfg.S3.SecretAccessKey,
				"",
			),
		))
	}

	if cfg.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	if cfg.Timeout > 0 {
		optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
		}))
	}

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// isNotFoundError checks if an error is a not found error
func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
