package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/interact"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/scene"
	"github.com/matzehuels/gitscroll/pkg/session"
)

type createSessionRequest struct {
	TreeID string  `json:"tree_id"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Metric string  `json:"metric,omitempty"`
	Zoom   float64 `json:"zoom,omitempty"`
}

type zoomRequest struct {
	// Delta is added to the target zoom. Positive zooms in.
	Delta float64 `json:"delta"`
}

type pointerRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Outside bool    `json:"outside,omitempty"` // pointer left the canvas
	Clicked bool    `json:"clicked,omitempty"`
	Down    bool    `json:"down,omitempty"`
}

type modeRequest struct {
	// Mode is a mode name, or "next" to cycle.
	Mode string `json:"mode"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type drillRequest struct {
	Path string `json:"path"`
}

type eventResponse struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// frameResponse is one rendered frame of a session.
type frameResponse struct {
	Session       string          `json:"session"`
	Tree          string          `json:"tree"`
	Root          string          `json:"root"`
	Depth         int             `json:"depth"`
	Zoom          float64         `json:"zoom"`
	Target        float64         `json:"target"`
	Mode          string          `json:"mode"`
	Animating     bool            `json:"animating"`
	FileOpacity   float64         `json:"file_opacity"`
	DetailOpacity float64         `json:"detail_opacity"`
	Hovered       string          `json:"hovered,omitempty"`
	Selected      string          `json:"selected,omitempty"`
	Tooltip       string          `json:"tooltip,omitempty"`
	Events        []eventResponse `json:"events"`
	Nodes         []layout.Box    `json:"nodes"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TreeID == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "tree_id is required"))
		return
	}

	mode := layout.Auto
	if req.Mode != "" {
		m, err := layout.ParseMode(req.Mode)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidMode, err, "invalid mode %q", req.Mode))
			return
		}
		mode = m
	}
	p, err := metric.ForKind(metric.Kind(req.Metric))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidMetric, err, "invalid metric %q", req.Metric))
		return
	}
	canvas := scene.DefaultCanvas
	if req.Width != 0 || req.Height != 0 {
		if err := errors.ValidateCanvas(req.Width, req.Height); err != nil {
			s.writeError(w, r, err)
			return
		}
		canvas = layout.Size{W: req.Width, H: req.Height}
	}
	zoom := layout.MinZoom
	if req.Zoom != 0 {
		zoom = layout.ClampZoom(req.Zoom)
	}

	snap, err := s.loadTree(r.Context(), req.TreeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := time.Now()
	sc := scene.New(layout.NewEngine(p),
		scene.WithCanvas(canvas),
		scene.WithMode(mode),
		scene.WithZoom(zoom),
		scene.WithDuration(s.cfg.AnimationDuration),
	)
	sc.SetTree(snap, now)
	sess := s.cfg.Sessions.Create(req.TreeID, sc)
	s.logger.Debug("created session", "session", sess.ID, "tree", req.TreeID)

	var resp frameResponse
	sess.Do(func(sc *scene.Scene) {
		resp = render(sess, sc.Frame(now, interact.Input{}), sc.Depth())
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFrame advances the session to now. Optional x and y query values
// place the pointer; without them the pointer is outside the canvas.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var in interact.Input
	q := r.URL.Query()
	if q.Has("x") || q.Has("y") {
		x, err := floatParam(q.Get("x"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		y, err := floatParam(q.Get("y"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in = interact.At(x, y)
	}
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		return in, nil
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Delta == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "delta must not be zero"))
		return
	}
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		sc.Zoom(req.Delta, now)
		return interact.Input{}, nil
	})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in := interact.Input{Clicked: req.Clicked, Down: req.Down}
	if !req.Outside {
		in.Pointer = &layout.Point{X: req.X, Y: req.Y}
	}
	s.withSession(w, r, func(*scene.Scene, time.Time) (interact.Input, error) {
		return in, nil
	})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		m := sc.Mode().Next()
		if req.Mode != "next" {
			var err error
			if m, err = layout.ParseMode(req.Mode); err != nil {
				return interact.Input{}, errors.Wrap(errors.ErrCodeInvalidMode, err, "invalid mode %q", req.Mode)
			}
		}
		sc.SetMode(m, now)
		return interact.Input{}, nil
	})
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		sc.Up(now)
		return interact.Input{}, nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateCanvas(req.Width, req.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		sc.Resize(layout.Size{W: req.Width, H: req.Height}, now)
		return interact.Input{}, nil
	})
}

// handleDrill drills into a directory by path. Paths on screen are looked
// up first so synthetic buckets can be entered.
func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	var req drillRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sc *scene.Scene, now time.Time) (interact.Input, error) {
		nodes := sc.Nodes()
		if i, ok := layout.IndexByPath(nodes)[req.Path]; ok && nodes[i].IsDir() {
			sc.DrillDown(nodes[i].Node, now)
			return interact.Input{}, nil
		}
		n, ok := sc.Snapshot().Find(req.Path)
		if !ok {
			return interact.Input{}, errors.New(errors.ErrCodeNotFound, "path %q is not in the tree", req.Path)
		}
		if !n.IsDir {
			return interact.Input{}, errors.New(errors.ErrCodeInvalidPath, "path %q is not a directory", req.Path)
		}
		sc.DrillDown(n, now)
		return interact.Input{}, nil
	})
}

// withSession looks up the session named in the URL, runs fn with its scene
// locked and responds with the frame produced by fn's input.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(sc *scene.Scene, now time.Time) (interact.Input, error)) {
	sess, err := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var resp frameResponse
	sess.Do(func(sc *scene.Scene) {
		now := time.Now()
		var in interact.Input
		if in, err = fn(sc, now); err != nil {
			return
		}
		resp = render(sess, sc.Frame(now, in), sc.Depth())
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func render(sess *session.Session, f scene.Frame, depth int) frameResponse {
	resp := frameResponse{
		Session:       sess.ID,
		Tree:          sess.TreeID,
		Depth:         depth,
		Zoom:          f.Zoom,
		Target:        f.Target,
		Mode:          f.Mode.String(),
		Animating:     f.Animating,
		FileOpacity:   f.FileOpacity,
		DetailOpacity: f.DetailOpacity,
		Events:        make([]eventResponse, 0, len(f.Events)),
	}
	var rootPath string
	if f.Root != nil {
		rootPath = f.Root.Path
	}
	resp.Root = rootPath
	resp.Nodes = layout.Export(f.Nodes, rootPath, f.Zoom, f.Mode, layout.Size{}).Nodes

	if n := f.HoveredNode(); n != nil {
		resp.Hovered = n.Path
		resp.Tooltip = scene.Tooltip(n, f.Zoom)
	}
	if n := f.SelectedNode(); n != nil {
		resp.Selected = n.Path
	}
	for _, ev := range f.Events {
		resp.Events = append(resp.Events, eventResponse{Kind: ev.Kind.String(), Path: ev.Path})
	}
	return resp
}
