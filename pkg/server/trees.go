package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/pipeline"
	"github.com/matzehuels/gitscroll/pkg/store"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// scanRequest is the body of POST /api/trees.
type scanRequest struct {
	URL      string   `json:"url,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Path     string   `json:"path,omitempty"`
	Ignore   []string `json:"ignore,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
	Analyze  bool     `json:"analyze,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trees": list})
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path != "" && !s.cfg.AllowLocal {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "local paths are disabled on this server"))
		return
	}

	opts := pipeline.Options{
		URL:      req.URL,
		Ref:      req.Ref,
		Path:     req.Path,
		Ignore:   req.Ignore,
		MaxDepth: req.MaxDepth,
		Analyze:  req.Analyze,
		Refresh:  req.Refresh,
	}
	if err := opts.ValidateForScan(); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.cfg.Runner.Scan(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := tree.ToDocument(snap, opts.Source())
	id, err := s.cfg.Store.Put(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("stored tree", "id", id, "source", doc.Source, "nodes", snap.Len())
	writeJSON(w, http.StatusCreated, store.Summary{
		ID:        id,
		Source:    doc.Source,
		ScannedAt: doc.ScannedAt,
		Stats:     doc.Stats,
	})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	doc, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := layoutOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.cfg.Runner.Layout(r.Context(), snap, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.loadTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := layoutOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	if opts.DOTDepth, err = intParam(q.Get("dot_depth")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.DOTNodes, err = intParam(q.Get("dot_nodes")); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Detailed = q.Get("detailed") == "true"
	opts.Formats = []string{string(format)}

	doc, err := s.cfg.Runner.Layout(r.Context(), snap, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, _ := snap.Find(doc.Root)
	artifacts, err := s.cfg.Runner.Export(r.Context(), doc, root, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[string(format)])
}

func (s *Server) loadTree(ctx context.Context, id string) (*tree.Snapshot, error) {
	doc, err := s.cfg.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := tree.FromDocument(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stored tree %q is corrupt", id)
	}
	return snap, nil
}

// layoutOptions reads root, mode, metric, zoom, width and height from the
// query string. Missing values take the pipeline defaults.
func layoutOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Root:   q.Get("root"),
		Mode:   q.Get("mode"),
		Metric: q.Get("metric"),
	}
	var err error
	if opts.Zoom, err = floatParam(q.Get("zoom")); err != nil {
		return opts, err
	}
	if opts.Width, err = floatParam(q.Get("width")); err != nil {
		return opts, err
	}
	if opts.Height, err = floatParam(q.Get("height")); err != nil {
		return opts, err
	}
	return opts, nil
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid number %q", v)
	}
	return f, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid count %q", v)
	}
	return n, nil
}
