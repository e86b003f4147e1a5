package server

import (
	stderrors "errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/record"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// formState carries submitted values and field errors back into the form so
// a rejected submission re-renders with the user's input intact.
type formState struct {
	Values record.Draft
	Errors map[string]string
}

// cardView pairs one record with its rendered SVG, or with the render error
// that takes the SVG's place.
type cardView struct {
	Record      *record.Record
	SVG         template.HTML
	RenderError string
	EditError   string
}

// pageData is the view model for the board page.
type pageData struct {
	Engines []engine.Engine
	Form    formState
	Cards   []cardView
}

// buildPage assembles the board page view model, rendering every record
// through the memoized adapter. editErrors attaches a save failure to the
// card it belongs to.
func (s *Server) buildPage(r *http.Request, form formState, editErrors map[string]string) pageData {
	ctx := r.Context()

	records := s.board.List(ctx)
	cards := make([]cardView, 0, len(records))
	for _, rec := range records {
		card := cardView{Record: rec, EditError: editErrors[rec.ID]}

		svg, err := s.renderer.Render(ctx, rec.Source, rec.Engine)
		if err != nil {
			// The failing card shows its error inline; every other card is
			// unaffected and nothing is retried.
			card.RenderError = errors.UserMessage(err)
			s.tracer.Log(trace.CategoryServer, trace.LevelWarn, "card render failed",
				"id", rec.ID, "error", err)
		} else {
			card.SVG = template.HTML(svg) //nolint:gosec // engine output, not user markup
		}
		cards = append(cards, card)
	}

	return pageData{
		Engines: engine.Engines(),
		Form:    form,
		Cards:   cards,
	}
}

// renderPage writes the board page with the given status code.
func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("render template", "error", err)
	}
}

// handleIndex serves the board page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, s.buildPage(r, formState{}, nil))
}

// handleCreate handles the graph form submission. Invalid submissions
// re-render the page with field-level messages and add nothing.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	draft := record.Draft{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Engine:      r.PostFormValue("engine"),
		Source:      r.PostFormValue("source"),
	}

	s.tracer.StartOperation("submit graph")
	defer s.tracer.EndOperation("submit graph")

	if _, err := s.board.Add(r.Context(), draft); err != nil {
		form := formState{Values: draft, Errors: fieldErrors(err)}
		s.renderPage(w, http.StatusUnprocessableEntity, s.buildPage(r, form, nil))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleUpdateSource commits an edited source back to its record.
// An unchanged source is a silent no-op.
func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	source := r.PostFormValue("source")

	_, _, err := s.board.UpdateSource(r.Context(), id, source)
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, errors.ErrCodeRecordNotFound):
		http.NotFound(w, r)
	default:
		editErrors := map[string]string{id: errors.UserMessage(err)}
		s.renderPage(w, http.StatusUnprocessableEntity, s.buildPage(r, formState{}, editErrors))
	}
}

// handleDelete removes a record. Deleting an already-deleted record is a
// no-op; either way the client lands back on the board.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.board.Remove(r.Context(), chi.URLParam(r, "id"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSVG serves one record's rendered SVG as a standalone document.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.board.Get(r.Context(), id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	svg, err := s.renderer.Render(r.Context(), rec.Source, rec.Engine)
	if err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// fieldErrors extracts the field→message map from a validation error.
// Non-validation errors map to a single form-level message.
func fieldErrors(err error) map[string]string {
	var verr *errors.ValidationErrors
	if stderrors.As(err, &verr) && !verr.Empty() {
		return verr.Fields
	}
	return map[string]string{"form": errors.UserMessage(err)}
}
