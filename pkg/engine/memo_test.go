package engine

import (
	"context"
	"testing"

	"github.com/matzehuels/graphpad/pkg/cache"
	"github.com/matzehuels/graphpad/pkg/errors"
)

// countingRenderer is a fake SVGRenderer that records every invocation.
type countingRenderer struct {
	calls int
	fail  bool
}

func (c *countingRenderer) Render(ctx context.Context, source string, eng Engine) ([]byte, error) {
	c.calls++
	if c.fail {
		return nil, errors.New(errors.ErrCodeRenderFailed, "boom")
	}
	return []byte("<svg>" + string(eng) + ":" + source + "</svg>"), nil
}

func TestMemoizerSkipsUnchangedInputs(t *testing.T) {
	ctx := context.Background()
	inner := &countingRenderer{}
	m := NewMemoizer(inner, cache.NewMemoryCache(), 0, nil)

	first, err := m.Render(ctx, "digraph G { a -> b; }", Dot)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := m.Render(ctx, "digraph G { a -> b; }", Dot)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("unchanged inputs should render once, got %d calls", inner.calls)
	}
	if string(first) != string(second) {
		t.Error("cached result should be identical to the first render")
	}
}

func TestMemoizerDistinguishesInputs(t *testing.T) {
	ctx := context.Background()
	inner := &countingRenderer{}
	m := NewMemoizer(inner, cache.NewMemoryCache(), 0, nil)

	if _, err := m.Render(ctx, "digraph G { a -> b; }", Dot); err != nil {
		t.Fatal(err)
	}

	// Changed source re-renders.
	if _, err := m.Render(ctx, "digraph G { a -> b; b -> c; }", Dot); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("changed source should re-render, got %d calls", inner.calls)
	}

	// Changed engine re-renders even with identical source.
	if _, err := m.Render(ctx, "digraph G { a -> b; }", Circo); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 3 {
		t.Errorf("changed engine should re-render, got %d calls", inner.calls)
	}
}

func TestMemoizerDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingRenderer{fail: true}
	m := NewMemoizer(inner, cache.NewMemoryCache(), 0, nil)

	if _, err := m.Render(ctx, "digraph G { a -> b; }", Dot); err == nil {
		t.Fatal("failing renderer should propagate the error")
	}

	// The failure fixed, the next call reaches the engine again.
	inner.fail = false
	svg, err := m.Render(ctx, "digraph G { a -> b; }", Dot)
	if err != nil {
		t.Fatalf("recovered render: %v", err)
	}
	if len(svg) == 0 {
		t.Error("recovered render should produce SVG")
	}
	if inner.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", inner.calls)
	}
}

func TestMemoizerNilCacheDisablesMemoization(t *testing.T) {
	ctx := context.Background()
	inner := &countingRenderer{}
	m := NewMemoizer(inner, nil, 0, nil)

	for i := 0; i < 3; i++ {
		if _, err := m.Render(ctx, "digraph G { a -> b; }", Dot); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("nil cache should render every time, got %d calls", inner.calls)
	}
}
