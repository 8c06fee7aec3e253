package chart

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"spendbook/internal/cache"
	"spendbook/internal/core"
)

const (
	cacheSize = 16
	cacheTTL  = 10 * time.Minute
)

// Key identifies a chart by the category totals it plots.
func Key(data []core.CategoryAmount) string {
	h := sha256.New()
	for _, c := range data {
		h.Write([]byte(c.Name))
		h.Write([]byte{0})
		h.Write([]byte(c.Amount.String()))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Publisher renders charts through a cache and writes them to asset sinks.
type Publisher struct {
	renderer Renderer
	cache    *cache.LRUCache[[]byte]
	sinks    []AssetSink
}

func NewPublisher(renderer Renderer, sinks ...AssetSink) *Publisher {
	return &Publisher{
		renderer: renderer,
		cache:    cache.NewLRUCache[[]byte](cacheSize, cacheTTL),
		sinks:    sinks,
	}
}

// Cache exposes the render cache so it can be registered with a
// cache.Manager.
func (p *Publisher) Cache() *cache.LRUCache[[]byte] { return p.cache }

// CacheStats reports render cache hits, misses and current size.
func (p *Publisher) CacheStats() (hits, misses uint64, size int) {
	hits, misses = p.cache.Stats()
	return hits, misses, p.cache.Size()
}

// PNG returns the rendered chart for data, from cache when possible.
func (p *Publisher) PNG(data []core.CategoryAmount) ([]byte, error) {
	key := Key(data)
	if png, ok := p.cache.Get(key); ok {
		return png, nil
	}

	var buf bytes.Buffer
	if err := p.renderer.RenderBarChart(&buf, data); err != nil {
		return nil, err
	}
	png := buf.Bytes()
	p.cache.Set(key, png)
	return png, nil
}

// Publish renders data and stores the image in every sink. Every sink is
// attempted; their failures are joined. With nothing to plot it removes the
// asset instead and returns ErrNoData.
func (p *Publisher) Publish(ctx context.Context, data []core.CategoryAmount) error {
	png, err := p.PNG(data)
	if errors.Is(err, ErrNoData) {
		if rerr := p.removeAsset(ctx); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.Put(ctx, AssetName, png); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}

	slog.DebugContext(ctx, "Chart published", "sinks", len(p.sinks), "bytes", len(png))
	return nil
}

// removeAsset deletes the published chart from sinks that support it, so
// an empty list does not keep showing old totals.
func (p *Publisher) removeAsset(ctx context.Context) error {
	var errs []error
	for _, s := range p.sinks {
		if r, ok := s.(AssetRemover); ok {
			if err := r.Remove(ctx, AssetName); err != nil {
				errs = append(errs, fmt.Errorf("%T: %w", s, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	return nil
}

// Close releases sinks that hold resources.
func (p *Publisher) Close() error {
	var errs []error
	for _, s := range p.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
