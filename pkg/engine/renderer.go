package engine

import (
	"bytes"
	"context"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// Renderer renders DOT source to SVG using a single shared Graphviz handle.
//
// The handle is acquired lazily on first use and reused for every subsequent
// render; initializing the wazero-backed engine is expensive, so per-render
// initialization is avoided. Call Close when done to release the handle.
//
// The underlying engine is not safe for concurrent use, so Render serializes
// engine calls internally. Renderer itself is safe for use from multiple
// goroutines.
type Renderer struct {
	tracer *trace.Tracer

	mu      sync.Mutex // serializes engine access and guards the fields below
	gv      *graphviz.Graphviz
	initErr error
	closed  bool
}

// NewRenderer creates a renderer. The Graphviz handle is not acquired until
// the first Render call. A nil tracer disables tracing.
func NewRenderer(tracer *trace.Tracer) *Renderer {
	if tracer == nil {
		tracer = trace.Discard()
	}
	return &Renderer{tracer: tracer}
}

// handle returns the shared Graphviz handle, acquiring it on first call.
// Callers must hold r.mu.
func (r *Renderer) handle(ctx context.Context) (*graphviz.Graphviz, error) {
	if r.closed {
		return nil, errors.New(errors.ErrCodeEngineInit, "renderer is closed")
	}
	if r.gv == nil && r.initErr == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			// Init failures are sticky: the wasm runtime will not come up on
			// a retry within the same process either.
			r.initErr = errors.Wrap(errors.ErrCodeEngineInit, err, "initialize graphviz engine")
			r.tracer.Log(trace.CategoryEngine, trace.LevelError, "engine init failed", "error", err)
		} else {
			r.gv = gv
			r.tracer.Log(trace.CategoryEngine, trace.LevelDebug, "engine handle acquired")
		}
	}
	return r.gv, r.initErr
}

// Render lays out the DOT source with the given engine and returns SVG
// markup with a normalized viewBox. Failures are coded: ENGINE_INIT_FAILED
// when the shared handle cannot be acquired, INVALID_SOURCE when the DOT
// text does not parse, RENDER_FAILED when layout or SVG generation fails.
func (r *Renderer) Render(ctx context.Context, source string, eng Engine) ([]byte, error) {
	if !eng.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidEngine, "unknown layout engine: %q", eng)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	gv, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}

	g, err := graphviz.ParseBytes([]byte(source))
	if err != nil {
		r.tracer.Log(trace.CategoryEngine, trace.LevelWarn, "DOT parse failed", "engine", eng, "error", err)
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse DOT source")
	}
	defer g.Close()

	gv.SetLayout(eng.Layout())

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		r.tracer.Log(trace.CategoryEngine, trace.LevelWarn, "render failed", "engine", eng, "error", err)
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render with %s", eng)
	}

	r.tracer.Log(trace.CategoryEngine, trace.LevelDebug, "rendered SVG", "engine", eng, "bytes", buf.Len())
	return normalizeViewBox(buf.Bytes()), nil
}

// Close releases the shared Graphviz handle. The renderer cannot be used
// after Close; subsequent Render calls fail with ENGINE_INIT_FAILED.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.gv == nil {
		return nil
	}
	gv := r.gv
	r.gv = nil
	return gv.Close()
}

// Ensure Renderer implements SVGRenderer.
var _ SVGRenderer = (*Renderer)(nil)
