package engine

import (
	"strings"
	"testing"
)

func TestNormalizeViewBox(t *testing.T) {
	in := `<?xml version="1.0"?>
<svg width="134pt" height="116pt" viewBox="0.00 0.00 134.00 116.00" xmlns="http://www.w3.org/2000/svg">
<g><text>a</text></g>
</svg>`

	out := string(normalizeViewBox([]byte(in)))

	if !strings.Contains(out, `viewBox="0 0 134.00 116.00"`) {
		t.Errorf("viewBox should be rewritten to origin: %s", out)
	}
	if !strings.Contains(out, `width="134" height="116"`) {
		t.Errorf("width/height should be pixel values matching the viewBox: %s", out)
	}
	if !strings.Contains(out, "<text>a</text>") {
		t.Error("body should be preserved")
	}
}

func TestNormalizeViewBoxNoViewBox(t *testing.T) {
	in := `<svg width="10" height="10"><rect/></svg>`
	out := normalizeViewBox([]byte(in))
	if string(out) != in {
		t.Error("SVG without a viewBox should be returned untouched")
	}
}

func TestNormalizeViewBoxZeroSize(t *testing.T) {
	in := `<svg viewBox="0 0 0 0"><rect/></svg>`
	out := normalizeViewBox([]byte(in))
	if string(out) != in {
		t.Error("zero-size viewBox should be returned untouched")
	}
}
