package artifact

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// S3Store keeps artifacts under an s3://bucket/prefix location. Uploads go
// through the transfer manager so large files stream in parts.
type S3Store struct {
	client   s3iface.S3API
	uploader *s3manager.Uploader
}

var _ Store = &S3Store{}

func NewS3Store(cfg *Config) (*S3Store, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.S3Region)
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint)
	}
	if cfg.S3ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	client := s3.New(sess)
	return &S3Store{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

func splitLocation(location string, path string) (bucket string, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.Errorf("invalid s3 artifact location %q", location)
	}
	cleaned, err := CleanPath(path)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if cleaned != "" {
		if key != "" {
			key = key + "/" + cleaned
		} else {
			key = cleaned
		}
	}
	return u.Host, key, nil
}

func (s *S3Store) Put(ctx context.Context, location string, path string, reader io.Reader) error {
	bucket, key, err := splitLocation(location, path)
	if err != nil {
		return err
	}
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	return err
}

func (s *S3Store) Get(ctx context.Context, location string, path string) (io.ReadCloser, error) {
	bucket, key, err := splitLocation(location, path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Store) List(ctx context.Context, location string, path string) ([]FileInfo, error) {
	bucket, prefix, err := splitLocation(location, path)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	root, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	rootPrefix := strings.TrimPrefix(root.Path, "/")
	if rootPrefix != "" {
		rootPrefix = rootPrefix + "/"
	}

	response := make([]FileInfo, 0)
	err = s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, dir := range page.CommonPrefixes {
			response = append(response, FileInfo{
				Path:  strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(dir.Prefix), rootPrefix), "/"),
				IsDir: true,
			})
		}
		for _, object := range page.Contents {
			response = append(response, FileInfo{
				Path: strings.TrimPrefix(aws.StringValue(object.Key), rootPrefix),
				Size: aws.Int64Value(object.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}
