package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphpad/pkg/board"
	"github.com/matzehuels/graphpad/pkg/cache"
	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/record"
)

// fakeRenderer deterministically fabricates SVG from its inputs and records
// how many times each (engine, source) pair reached it.
type fakeRenderer struct {
	calls    map[string]int
	failWith string // sources equal to this fail with RENDER_FAILED
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{calls: make(map[string]int)}
}

func (f *fakeRenderer) Render(ctx context.Context, source string, eng engine.Engine) ([]byte, error) {
	f.calls[string(eng)+"|"+source]++
	if source == f.failWith {
		return nil, errors.New(errors.ErrCodeRenderFailed, "layout failed for this graph")
	}
	return []byte(fmt.Sprintf("<svg><!-- %s: %s --></svg>", eng, source)), nil
}

func (f *fakeRenderer) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// newTestServer wires a server around a fresh board and the given renderer.
func newTestServer(r engine.SVGRenderer) (*Server, *board.Board) {
	b := board.New(nil)
	logger := log.New(io.Discard)
	return New(b, r, nil, logger), b
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateValidSubmission(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	rec := postForm(t, h, "/graphs", url.Values{
		"title":  {"My graph"},
		"engine": {"circo"},
		"source": {"digraph G { a -> b; }"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body: %s)", rec.Code, rec.Body.String())
	}
	if b.Len() != 1 {
		t.Errorf("board should hold exactly one record, got %d", b.Len())
	}
}

func TestCreateInvalidSubmission(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	rec := postForm(t, h, "/graphs", url.Values{
		"engine": {"dot"},
		"source": {"x"}, // below the two-character minimum
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if b.Len() != 0 {
		t.Error("rejected submission must not add a record")
	}
	if !strings.Contains(rec.Body.String(), "source must be at least 2 characters") {
		t.Error("page should carry the field-level message")
	}
	// The submitted values survive the round trip.
	if !strings.Contains(rec.Body.String(), `<option value="dot" selected>`) {
		t.Error("submitted engine selection should be preserved")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	r, err := b.Add(context.Background(), record.Draft{Engine: "dot", Source: "digraph G { a; }"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		rec := postForm(t, h, "/graphs/"+r.ID+"/delete", url.Values{})
		if rec.Code != http.StatusSeeOther {
			t.Errorf("delete #%d: status = %d, want 303", i+1, rec.Code)
		}
	}
	if b.Len() != 0 {
		t.Errorf("board length = %d, want 0", b.Len())
	}
}

func TestIndexShowsCards(t *testing.T) {
	fake := newFakeRenderer()
	s, b := newTestServer(fake)
	h := s.Router()

	if _, err := b.Add(context.Background(), record.Draft{Title: "alpha", Engine: "dot", Source: "digraph G { a; }"}); err != nil {
		t.Fatal(err)
	}

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alpha") {
		t.Error("card title missing from page")
	}
	if !strings.Contains(body, "<svg>") {
		t.Error("rendered SVG missing from page")
	}
}

func TestRenderErrorConfinedToFailingCard(t *testing.T) {
	fake := newFakeRenderer()
	fake.failWith = "digraph Bad { x -> }"
	s, b := newTestServer(fake)
	h := s.Router()

	ctx := context.Background()
	if _, err := b.Add(ctx, record.Draft{Title: "good", Engine: "dot", Source: "digraph G { a; }"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Add(ctx, record.Draft{Title: "bad", Engine: "dot", Source: "digraph Bad { x -> }"}); err != nil {
		t.Fatal(err)
	}

	rec := get(t, h, "/")
	body := rec.Body.String()

	if !strings.Contains(body, "layout failed for this graph") {
		t.Error("failing card should show its render error inline")
	}
	if !strings.Contains(body, "<svg><!-- dot: digraph G { a; } --></svg>") {
		t.Error("healthy card should still show its SVG")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("a render error is not fatal to the page, status = %d", rec.Code)
	}
}

func TestEditRerendersOnlyThatRecord(t *testing.T) {
	fake := newFakeRenderer()
	memo := engine.NewMemoizer(fake, cache.NewMemoryCache(), 0, nil)
	s, b := newTestServer(memo)
	h := s.Router()

	ctx := context.Background()
	if _, err := b.Add(ctx, record.Draft{Engine: "dot", Source: "digraph A { a; }"}); err != nil {
		t.Fatal(err)
	}
	rb, err := b.Add(ctx, record.Draft{Engine: "dot", Source: "digraph B { b; }"})
	if err != nil {
		t.Fatal(err)
	}

	get(t, h, "/") // both render once
	if fake.totalCalls() != 2 {
		t.Fatalf("initial page should render both records, got %d calls", fake.totalCalls())
	}

	rec := postForm(t, h, "/graphs/"+rb.ID+"/source", url.Values{
		"source": {"digraph B { b; c; }"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d", rec.Code)
	}

	get(t, h, "/")
	if n := fake.calls["dot|digraph A { a; }"]; n != 1 {
		t.Errorf("untouched record should not re-render, got %d calls", n)
	}
	if n := fake.calls["dot|digraph B { b; c; }"]; n != 1 {
		t.Errorf("edited record should render its new source once, got %d calls", n)
	}

	// Saving the same source again triggers no further renders.
	postForm(t, h, "/graphs/"+rb.ID+"/source", url.Values{"source": {"digraph B { b; c; }"}})
	get(t, h, "/")
	if fake.totalCalls() != 3 {
		t.Errorf("no-op save should not re-render anything, got %d total calls", fake.totalCalls())
	}
}

func TestUpdateUnknownRecordIs404(t *testing.T) {
	s, _ := newTestServer(newFakeRenderer())
	h := s.Router()

	rec := postForm(t, h, "/graphs/ghost/source", url.Values{"source": {"digraph G { a; }"}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSVGEndpoint(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	r, err := b.Add(context.Background(), record.Draft{Engine: "twopi", Source: "digraph G { a; }"})
	if err != nil {
		t.Fatal(err)
	}

	rec := get(t, h, "/graphs/"+r.ID+"/svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "twopi") {
		t.Error("SVG should be rendered with the record's engine")
	}

	if rec := get(t, h, "/graphs/nope/svg"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestAPICreateAndValidation(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	body := `{"title":"api graph","engine":"circo","source":"digraph G { a -> b; }"}`
	req := httptest.NewRequest(http.MethodPost, "/api/graphs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created record.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Engine != engine.Circo {
		t.Errorf("unexpected record: %+v", created)
	}

	// Invalid draft: 422 with the field map, nothing added.
	req = httptest.NewRequest(http.MethodPost, "/api/graphs", strings.NewReader(`{"engine":"dot","source":"x"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Errors["source"] == "" {
		t.Errorf("payload should carry a source field error: %+v", payload)
	}
	if b.Len() != 1 {
		t.Errorf("board length = %d, want 1", b.Len())
	}
}

func TestAPIUpdateReportsChanged(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	r, err := b.Add(context.Background(), record.Draft{Engine: "dot", Source: "digraph G { a; }"})
	if err != nil {
		t.Fatal(err)
	}

	patch := func(source string) updateResult {
		t.Helper()
		req := httptest.NewRequest(http.MethodPatch, "/api/graphs/"+r.ID, strings.NewReader(`{"source":`+fmt.Sprintf("%q", source)+`}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("patch status = %d (body: %s)", rec.Code, rec.Body.String())
		}
		var res updateResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		return res
	}

	res := patch("digraph G { a; b; }")
	if !res.Changed || res.Record.Revision != 2 {
		t.Errorf("changed save: %+v", res)
	}

	res = patch("digraph G { a; b; }")
	if res.Changed || res.Record.Revision != 2 {
		t.Errorf("no-op save: %+v", res)
	}
}

func TestAPIDeleteIdempotent(t *testing.T) {
	s, b := newTestServer(newFakeRenderer())
	h := s.Router()

	r, err := b.Add(context.Background(), record.Draft{Engine: "dot", Source: "digraph G { a; }"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/graphs/"+r.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("delete #%d: status = %d, want 204", i+1, rec.Code)
		}
	}
}

func TestAPIEngines(t *testing.T) {
	s, _ := newTestServer(newFakeRenderer())
	h := s.Router()

	rec := get(t, h, "/api/engines")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var engines []string
	if err := json.Unmarshal(rec.Body.Bytes(), &engines); err != nil {
		t.Fatal(err)
	}
	if len(engines) != 8 || engines[0] != "dot" {
		t.Errorf("engines = %v", engines)
	}
}
