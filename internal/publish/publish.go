// Package publish uploads a built output tree to an S3-compatible bucket.
package publish

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/errors"
)

// TracerName is the instrumentation name of publish spans.
const TracerName = "github.com/Zer0-/polymer-bricks/internal/publish"

// DefaultContentType is used for extensions mime does not know.
const DefaultContentType = "application/octet-stream"

// Client is the subset of the S3 API the publisher uses.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures a Publisher.
type Options struct {
	// Bucket is the destination bucket.
	Bucket string

	// Prefix is prepended to every object key.
	Prefix string

	// Workers bounds concurrent uploads (default 8).
	Workers int

	// Client performs the uploads.
	Client Client

	// Logger receives upload logs.
	Logger *slog.Logger

	// OnUpload is called after each object is stored.
	OnUpload func(key string, size int64)
}

// Result summarizes a publish.
type Result struct {
	// Keys are the uploaded object keys in lexical order.
	Keys []string

	// Bytes is the total uploaded size.
	Bytes int64
}

// Publisher uploads output trees.
type Publisher struct {
	opts   Options
	tracer trace.Tracer
	logger *slog.Logger
}

// New creates a publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New(errors.CodeConfigValue).
			WithDetail("publish.bucket is empty").
			WithSuggestion("Set publish.bucket in bricks.json or pass --bucket")
	}
	if opts.Client == nil {
		return nil, errors.New(errors.CodePublishFailed).WithDetail("no S3 client")
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "publish")
	}
	return &Publisher{
		opts:   opts,
		tracer: otel.Tracer(TracerName),
		logger: logger,
	}, nil
}

// NewClient creates an S3 client from the publish configuration. Static
// keys take precedence; otherwise credentials come from the default AWS
// chain (environment, shared files, instance role), optionally narrowed to
// cfg.Profile.
func NewClient(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New(errors.CodePublishFailed).
			WithDetail("loading AWS configuration").
			WithSuggestion("Check publish.profile and the shared AWS config files").
			Wrap(err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Publish uploads every regular file under dir.
func (p *Publisher) Publish(ctx context.Context, dir string) (result *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "bricks.publish", trace.WithAttributes(
		attribute.String("bricks.bucket", p.opts.Bucket),
		attribute.String("bricks.prefix", p.opts.Prefix),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		keys  = make([]string, 0, len(files))
		total atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := Key(p.opts.Prefix, rel)
			size, err := p.upload(ctx, filepath.Join(dir, filepath.FromSlash(rel)), key)
			if err != nil {
				return err
			}
			total.Add(size)
			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()
			if p.opts.OnUpload != nil {
				p.opts.OnUpload(key, size)
			}
			p.logger.Debug("uploaded", "key", key, "size", size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(keys)
	span.SetAttributes(attribute.Int("bricks.objects", len(keys)))
	p.logger.Info("Published", "bucket", p.opts.Bucket, "objects", len(keys), "bytes", total.Load())
	return &Result{Keys: keys, Bytes: total.Load()}, nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) (int64, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, errors.New(errors.CodePublishFailed).WithPath(file).Wrap(err)
	}
	_, err = p.opts.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentType(file)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return 0, errors.New(errors.CodePublishFailed).
			WithPath(file).
			WithDetail("s3://" + p.opts.Bucket + "/" + key).
			Wrap(err)
	}
	return int64(len(data)), nil
}

// listFiles returns the slash paths of regular files under dir, relative to
// dir, in lexical order.
func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		e := errors.New(errors.CodeSourceNotFound).WithPath(dir)
		if err != nil {
			e = e.Wrap(err)
		}
		return nil, e
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.CodePublishFailed).WithPath(dir).Wrap(err)
	}
	sort.Strings(files)
	return files, nil
}

// Key joins prefix and a slash-separated relative path into an object key.
func Key(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// ContentType returns the content type for a file name.
func ContentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return DefaultContentType
}
