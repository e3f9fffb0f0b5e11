package api

import (
	"errors"
	"net/http"

	"github.com/fouedh91760/a-level-saver-sub001/internal/audit"
	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/detector"
)

// handleCatalog handles GET /v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Load()
	w.Header().Set("ETag", snap.ETag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, summarize(snap))
}

// handleDetect handles POST /v1/detect
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	facts, ok := decodeFacts(w, r, req.Facts)
	if !ok {
		return
	}

	cat := s.holder.Catalog()
	c := detector.DetectAll(facts, cat.States())
	resp := DetectResponse{
		States:         c.Names(),
		Warnings:       names(c.Warnings),
		Infos:          names(c.Infos),
		CatalogVersion: cat.Version(),
	}
	if c.Blocking != nil {
		resp.Blocking = c.Blocking.Name
	}
	if req.Explain {
		resp.Evaluations = detector.Explain(facts, cat.States())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResolve handles POST /v1/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	facts, ok := decodeFacts(w, r, req.Facts)
	if !ok {
		return
	}
	in, ok := parseIntention(w, r, req.Intention)
	if !ok {
		return
	}

	res := s.responder.Resolve(facts, in)
	writeJSON(w, http.StatusOK, ResolveResponse{
		States:         res.Classification.Names(),
		Selection:      res.Selection,
		CatalogVersion: res.CatalogVersion,
	})
}

// handleRespond handles POST /v1/respond
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	facts, ok := decodeFacts(w, r, req.Facts)
	if !ok {
		return
	}
	in, ok := parseIntention(w, r, req.Intention)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.responder.Respond(r.Context(), facts, in))
}

// handleReload handles POST /v1/catalog/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		NotFoundError(w, r, "Catalog reload is not configured")
		return
	}

	snap, changed, err := s.holder.Reload(r.Context(), s.source)
	if err != nil {
		s.log.Error().Err(err).Str("catalog_version", snap.Catalog.Version()).Msg("catalog reload failed")
		s.audit(audit.NewEventBuilder(r.Context(), audit.ActionCatalogRejected).
			ForCatalog(snap.Catalog.Version()).
			Failure(err.Error()).
			Build())
		if errors.Is(err, catalog.ErrInvalidCatalog) {
			InvalidCatalogError(w, r, "Catalog rejected, the previous catalog stays active", map[string]string{
				"catalog": err.Error(),
			})
			return
		}
		CatalogUnavailableError(w, r, "Catalog store could not be read")
		return
	}

	if changed {
		s.log.Info().Str("catalog_version", snap.Catalog.Version()).Int("states", len(snap.Catalog.States())).Msg("catalog reloaded")
		s.audit(audit.NewEventBuilder(r.Context(), audit.ActionCatalogReloaded).
			ForCatalog(snap.Catalog.Version()).
			Build())
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		OK:       true,
		Changed:  changed,
		Version:  snap.Catalog.Version(),
		ETag:     snap.ETag,
		Warnings: snap.Catalog.Warnings(),
	})
}

func (s *Server) audit(event audit.Event) {
	if s.auditor != nil {
		s.auditor.Log(event)
	}
}

func names(defs []catalog.StateDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}
