// Package engine renders Graphviz DOT source to SVG.
//
// This package wraps the embedded Graphviz engine (goccy/go-graphviz, a pure
// Go port running the upstream C engine under wazero) behind a small
// contract: DOT source plus a layout engine name in, SVG markup or an error
// out. Nothing else crosses the boundary.
//
// # Layout Engines
//
// The eight upstream Graphviz layout engines are supported:
//
//	dot, neato, twopi, circo, fdp, sfdp, patchwork, osage
//
// # Usage
//
//	r := engine.NewRenderer(tracer)
//	defer r.Close()
//
//	svg, err := r.Render(ctx, "digraph G { a -> b; }", engine.Circo)
//	if err != nil {
//	    // engine init failure, DOT parse failure, or render failure
//	}
//
// Wrap the renderer in a [Memoizer] to skip re-rendering unchanged inputs.
package engine

import (
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphpad/pkg/errors"
)

// Engine identifies a Graphviz layout engine.
type Engine string

// The supported layout engines. Values match the upstream Graphviz names.
const (
	Dot       Engine = "dot"
	Neato     Engine = "neato"
	Twopi     Engine = "twopi"
	Circo     Engine = "circo"
	FDP       Engine = "fdp"
	SFDP      Engine = "sfdp"
	Patchwork Engine = "patchwork"
	Osage     Engine = "osage"
)

// DefaultEngine is used when no engine is specified.
const DefaultEngine = Dot

// engines lists all supported engines in presentation order.
var engines = []Engine{Dot, Neato, Twopi, Circo, FDP, SFDP, Patchwork, Osage}

// layouts maps each engine to its go-graphviz layout constant.
var layouts = map[Engine]graphviz.Layout{
	Dot:       graphviz.DOT,
	Neato:     graphviz.NEATO,
	Twopi:     graphviz.TWOPI,
	Circo:     graphviz.CIRCO,
	FDP:       graphviz.FDP,
	SFDP:      graphviz.SFDP,
	Patchwork: graphviz.PATCHWORK,
	Osage:     graphviz.OSAGE,
}

// Engines returns all supported layout engines in presentation order.
// The returned slice is a copy and may be modified by the caller.
func Engines() []Engine {
	out := make([]Engine, len(engines))
	copy(out, engines)
	return out
}

// ParseEngine converts a user-supplied engine name to an Engine.
// Names are case-sensitive and must match the Graphviz names exactly.
func ParseEngine(name string) (Engine, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidEngine, "engine is required")
	}
	e := Engine(name)
	if _, ok := layouts[e]; !ok {
		return "", errors.New(errors.ErrCodeInvalidEngine, "unknown layout engine: %q", name)
	}
	return e, nil
}

// String returns the Graphviz name of the engine.
func (e Engine) String() string {
	return string(e)
}

// Valid reports whether e is one of the supported engines.
func (e Engine) Valid() bool {
	_, ok := layouts[e]
	return ok
}

// Layout returns the go-graphviz layout constant for the engine.
// Panics on invalid engines; callers should validate via ParseEngine first.
func (e Engine) Layout() graphviz.Layout {
	l, ok := layouts[e]
	if !ok {
		panic("engine: invalid layout engine " + string(e))
	}
	return l
}
