package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	fetchTimeout  = 10 * time.Second
	maxObjectSize = 1 << 20
)

var errNotConfigured = errors.New("prompt store is not configured")

// ObjectGetter is the part of *s3.Client the provider needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Provider loads the prompt templates once per process and serves them from
// memory afterwards. It never fails: any problem with the store yields the
// compiled-in defaults, which are cached just the same.
type Provider struct {
	store  ObjectGetter
	bucket string
	key    string
	log    *zap.Logger

	cached atomic.Pointer[Templates]
	group  singleflight.Group
}

// New returns a provider reading bucket/key from store. store may be nil,
// in which case the defaults are always used.
func New(store ObjectGetter, bucket, key string, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{store: store, bucket: bucket, key: key, log: log}
}

// Templates returns the cached templates, fetching them on first use.
func (p *Provider) Templates(ctx context.Context) Templates {
	if t := p.cached.Load(); t != nil {
		return *t
	}
	v, _, _ := p.group.Do("templates", func() (any, error) {
		if t := p.cached.Load(); t != nil {
			return t, nil
		}
		// результат переживает вызвавший запрос, поэтому без его отмены
		t := p.load(context.WithoutCancel(ctx))
		p.cached.Store(&t)
		return &t, nil
	})
	return *v.(*Templates)
}

// Reset drops the cached templates so the next call fetches again.
func (p *Provider) Reset() {
	p.cached.Store(nil)
}

func (p *Provider) load(ctx context.Context) Templates {
	t, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("prompt templates unavailable, using defaults",
			zap.String("bucket", p.bucket), zap.String("key", p.key), zap.Error(err))
		return Defaults()
	}
	p.log.Info("prompt templates loaded", zap.String("bucket", p.bucket), zap.String("key", p.key))
	return t
}

func (p *Provider) fetch(ctx context.Context) (Templates, error) {
	if p.store == nil || p.bucket == "" || p.key == "" {
		return Templates{}, errNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	out, err := p.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		return Templates{}, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize))
	if err != nil {
		return Templates{}, fmt.Errorf("read object: %w", err)
	}
	var t Templates
	if err := json.Unmarshal(b, &t); err != nil {
		return Templates{}, fmt.Errorf("decode templates: %w", err)
	}
	if !t.complete() {
		return Templates{}, errors.New("templates object misses classification_prompt or generation_prompt")
	}
	return t, nil
}
