package sink

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
)

// Store puts named objects in one location.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Location describes where objects go, e.g. a directory or s3://bucket/prefix.
	Location() string
	Close() error
}

// StoreOptions configures remote stores.
type StoreOptions struct {
	// Region is the AWS region for s3:// locations.
	Region string
	// CredentialsFile is a service account file for gs:// locations.
	CredentialsFile string
	Logger          *zap.Logger
}

// OpenStore opens the store for a location: s3://bucket/prefix,
// gs://bucket/prefix, or a local directory, which is created if absent.
func OpenStore(ctx context.Context, location string, opts StoreOptions) (Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "s3":
			return NewS3Store(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), opts)
		case "gs":
			return NewGCSStore(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), opts)
		}
	}
	return NewLocalStore(location)
}

// LocalStore writes files into a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("dir", dir)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes data to dir/name, replacing any existing file.
func (s *LocalStore) Put(_ context.Context, name string, data []byte, _ string) error {
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output file").
			WithDetail("file", p)
	}
	return nil
}

// Location implements Store.
func (s *LocalStore) Location() string { return s.dir }

// Close implements Store.
func (s *LocalStore) Close() error { return nil }

// S3Store uploads objects under a bucket prefix.
type S3Store struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
	logger   *zap.Logger
}

// NewS3Store loads the default AWS configuration and creates an uploader.
func NewS3Store(ctx context.Context, bucket, prefix string, opts StoreOptions) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "s3 location needs a bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket: bucket,
		prefix: prefix,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 4
		}),
		logger: opts.Logger.With(zap.String("store", "s3")),
	}, nil
}

// Put uploads data to prefix/name.
func (s *S3Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	key := path.Join(s.prefix, name)
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("key", key)
	}
	s.logger.Debug("object uploaded",
		logger.GrowoutField(ctx),
		zap.String("location", result.Location),
		zap.Int("bytes", len(data)))
	return nil
}

// Location implements Store.
func (s *S3Store) Location() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// Close implements Store.
func (s *S3Store) Close() error { return nil }

// GCSStore writes objects under a bucket prefix.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
	logger *zap.Logger
}

// NewGCSStore creates a storage client using the default credentials or
// opts.CredentialsFile.
func NewGCSStore(ctx context.Context, bucket, prefix string, opts StoreOptions) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "gs location needs a bucket")
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}

	return &GCSStore{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
		prefix: prefix,
		logger: opts.Logger.With(zap.String("store", "gcs")),
	}, nil
}

// Put writes data to prefix/name.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	object := path.Join(s.prefix, name)
	w := s.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("object", object)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close GCS writer").
			WithDetail("object", object)
	}
	s.logger.Debug("object written",
		logger.GrowoutField(ctx),
		zap.String("object", object),
		zap.Int("bytes", len(data)))
	return nil
}

// Location implements Store.
func (s *GCSStore) Location() string {
	return "gs://" + path.Join(s.name, s.prefix)
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
