package welcome

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/config"
)

// BackgroundSource supplies the candidate background images of the welcome document.
type BackgroundSource interface {
	// Names lists the candidates. An empty list disables the background.
	Names() []string

	// Open returns the image content of one candidate.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// NewBackgroundSource builds the source selected by the configuration.
func NewBackgroundSource(ctx context.Context, cfg config.BackgroundConfig) (BackgroundSource, error) {
	switch cfg.Source {
	case config.BackgroundSourceDir:
		return NewDirSource(cfg.Dir, cfg.Files), nil
	case config.BackgroundSourceS3:
		return NewS3Source(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported background source %q", cfg.Source)
}

// DirSource reads background images from a local directory.
type DirSource struct {
	dir   string
	files []string
}

func NewDirSource(dir string, files []string) *DirSource {
	return &DirSource{dir: dir, files: files}
}

func (d *DirSource) Names() []string {
	return d.files
}

func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.dir, filepath.Base(name)))
}

// ObjectGetter is the part of the S3 client used to fetch images.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads background images from an S3 compatible bucket.
type S3Source struct {
	client ObjectGetter
	bucket string
	prefix string
	files  []string
}

// NewS3Source creates a client from the default AWS credential chain. A configured endpoint
// switches to path style addressing, as MinIO and similar servers expect.
func NewS3Source(ctx context.Context, cfg config.BackgroundConfig) (*S3Source, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SourceWithClient(client, cfg.S3Bucket, cfg.S3Prefix, cfg.Files), nil
}

func NewS3SourceWithClient(client ObjectGetter, bucket, prefix string, files []string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix, files: files}
}

func (s *S3Source) Names() []string {
	return s.files
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Join(s.prefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}
