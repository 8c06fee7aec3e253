package chart

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	gochart "github.com/wcharczuk/go-chart/v2"

	"spendbook/internal/core"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func totals(pairs ...string) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, core.CategoryAmount{Name: pairs[i], Amount: decimal.RequireFromString(pairs[i+1])})
	}
	return out
}

type countingRenderer struct{ calls int }

func (r *countingRenderer) RenderBarChart(w io.Writer, data []core.CategoryAmount) error {
	r.calls++
	if len(data) == 0 {
		return ErrNoData
	}
	_, err := w.Write([]byte(Key(data)))
	return err
}

type memorySink struct {
	assets map[string][]byte
	err    error
}

func (s *memorySink) Put(_ context.Context, name string, png []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.assets == nil {
		s.assets = map[string][]byte{}
	}
	s.assets[name] = png
	return nil
}

func (s *memorySink) Remove(_ context.Context, name string) error {
	delete(s.assets, name)
	return nil
}

func TestBarChartRendererProducesPNG(t *testing.T) {
	var buf bytes.Buffer
	err := BarChartRenderer{}.RenderBarChart(&buf, totals("Travel", "20", "Food", "15", "Books", "2.5"))
	if err != nil {
		t.Fatalf("RenderBarChart: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatalf("output is not a PNG (%d bytes)", buf.Len())
	}
}

func TestBarChartRendererSingleAndEqualTotals(t *testing.T) {
	tests := map[string][]core.CategoryAmount{
		"one category":  totals("Food", "10"),
		"equal totals":  totals("A", "5", "B", "5"),
		"with a refund": totals("Food", "10", "Refunds", "-4"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (BarChartRenderer{}).RenderBarChart(&buf, data); err != nil {
				t.Fatalf("RenderBarChart: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
				t.Fatal("output is not a PNG")
			}
		})
	}
}

// barPixels counts the pixels painted in the series colour of bar index.
func barPixels(t *testing.T, img image.Image, index int) int {
	t.Helper()
	c := gochart.DefaultColorPalette.GetSeriesColor(index)
	want := color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}

	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.NRGBAModel.Convert(img.At(x, y)) == want {
				n++
			}
		}
	}
	return n
}

func TestBarHeightsAreProportional(t *testing.T) {
	var buf bytes.Buffer
	if err := (BarChartRenderer{}).RenderBarChart(&buf, totals("Travel", "20", "Food", "15")); err != nil {
		t.Fatalf("RenderBarChart: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	travel, food := barPixels(t, img, 0), barPixels(t, img, 1)
	if travel == 0 {
		t.Fatal("largest bar not drawn")
	}
	// 15/20 of the area, give or take the outline
	if ratio := float64(food) / float64(travel); ratio < 0.6 || ratio > 0.9 {
		t.Errorf("food/travel area = %.2f (%d/%d px), want about 0.75", ratio, food, travel)
	}
}

func TestBarChartRendererNoData(t *testing.T) {
	tests := map[string][]core.CategoryAmount{
		"nil":       nil,
		"all zeros": totals("Food", "0", "Travel", "0"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (BarChartRenderer{}).RenderBarChart(&buf, data); !errors.Is(err, ErrNoData) {
				t.Fatalf("err = %v, want ErrNoData", err)
			}
			if buf.Len() != 0 {
				t.Fatal("renderer wrote output for empty data")
			}
		})
	}
}

func TestChartWidthGrowsWithBars(t *testing.T) {
	if chartWidth(1) != minWidth {
		t.Errorf("chartWidth(1) = %d, want %d", chartWidth(1), minWidth)
	}
	if chartWidth(30) <= chartWidth(10) {
		t.Error("width should grow with the number of bars")
	}
}

func TestKeyDependsOnContent(t *testing.T) {
	a := Key(totals("Food", "15", "Travel", "20"))
	if a != Key(totals("Food", "15", "Travel", "20")) {
		t.Error("same data should produce the same key")
	}
	if a == Key(totals("Food", "15", "Travel", "21")) {
		t.Error("different amounts should produce different keys")
	}
	if Key(totals("ab", "1")) == Key(totals("a", "1")) {
		t.Error("different names should produce different keys")
	}
}

func TestPublisherCachesRenders(t *testing.T) {
	r := &countingRenderer{}
	p := NewPublisher(r)
	data := totals("Food", "15")

	first, err := p.PNG(data)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	second, _ := p.PNG(data)
	if r.calls != 1 || !bytes.Equal(first, second) {
		t.Fatalf("renderer called %d times, want 1", r.calls)
	}

	if _, err := p.PNG(totals("Food", "16")); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("changed totals should re-render, calls = %d", r.calls)
	}

	hits, misses, size := p.CacheStats()
	if hits != 1 || misses != 2 || size != 2 {
		t.Errorf("CacheStats() = %d, %d, %d; want 1, 2, 2", hits, misses, size)
	}
}

func TestPublisherWritesEverySink(t *testing.T) {
	dir := t.TempDir()
	good := &memorySink{}
	bad := &memorySink{err: errors.New("bucket missing")}
	p := NewPublisher(&countingRenderer{}, DirSink{Dir: dir}, bad, good)

	err := p.Publish(context.Background(), totals("Food", "15"))
	if !errors.Is(err, ErrSink) {
		t.Fatalf("err = %v, want ErrSink", err)
	}
	if _, ok := good.assets[AssetName]; !ok {
		t.Error("sink after the failing one was skipped")
	}
	if _, err := os.Stat(filepath.Join(dir, AssetName)); err != nil {
		t.Errorf("asset not written to directory: %v", err)
	}
}

func TestPublisherNoDataRemovesAsset(t *testing.T) {
	dir := t.TempDir()
	sink := &memorySink{}
	p := NewPublisher(&countingRenderer{}, sink, DirSink{Dir: dir})

	if err := p.Publish(context.Background(), totals("Food", "15")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Publish(context.Background(), nil); !errors.Is(err, ErrNoData) || errors.Is(err, ErrSink) {
		t.Fatalf("err = %v, want ErrNoData only", err)
	}
	if len(sink.assets) != 0 {
		t.Error("asset left in sink")
	}
	if _, err := os.Stat(filepath.Join(dir, AssetName)); !os.IsNotExist(err) {
		t.Errorf("asset left on disk: %v", err)
	}

	// nothing left to remove is fine
	if err := p.Publish(context.Background(), nil); errors.Is(err, ErrSink) {
		t.Fatalf("second removal failed: %v", err)
	}
}

func TestGCSSinkObjectName(t *testing.T) {
	if got := (&GCSSink{prefix: "charts"}).ObjectName(AssetName); got != "charts/plot.png" {
		t.Errorf("ObjectName = %q", got)
	}
	if got := (&GCSSink{}).ObjectName(AssetName); got != AssetName {
		t.Errorf("ObjectName = %q", got)
	}
}
