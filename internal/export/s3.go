package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Uploader is the subset of s3manager.Uploader used for exports.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// NewUploader creates an S3 uploader for region using the default AWS
// credential chain.
func NewUploader(region string) (*s3manager.Uploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return s3manager.NewUploader(sess), nil
}

// S3Publisher copies local export files into a bucket under a key prefix.
type S3Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewS3Publisher creates a publisher for bucket. Keys are prefix + file name.
func NewS3Publisher(uploader Uploader, bucket, prefix string, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{uploader: uploader, bucket: bucket, prefix: prefix, logger: logger}
}

// Key returns the object key a local file is published under.
func (p *S3Publisher) Key(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads the file at localPath.
func (p *S3Publisher) Publish(ctx context.Context, localPath, contentType string, rows int) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open export for upload: %w", err)
	}
	defer f.Close()

	key := p.Key(localPath)
	out, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata: map[string]*string{
			"record-count": aws.String(strconv.Itoa(rows)),
		},
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}
	p.logger.Info("export uploaded", "bucket", p.bucket, "key", key, "location", out.Location)
	return nil
}
