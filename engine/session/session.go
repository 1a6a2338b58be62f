package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-plot/common"
	"github.com/Carmen-Shannon/oxy-plot/engine/loader"
	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/registry"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
)

// ErrClosed is returned by Send after the session loop has stopped.
var ErrClosed = errors.New("session: closed")

// session is the implementation of the Session interface.
type session struct {
	reg    *registry.Context
	loader loader.Loader
	logger *slog.Logger

	inbox chan Message
	done  chan struct{}

	// snapshots holds the cancel functions of pending snapshot requests by id.
	// Only the loop goroutine touches it.
	snapshots map[string]func()

	onError func(msg Message, err error)
}

// Session is the single event loop that owns a registry. Host events are queued with Send
// and handled one at a time, in send order, by Run.
//
// Events naming scenes or plots that no longer exist are dropped without error.
type Session interface {
	// Send queues a message for the loop.
	//
	// Parameters:
	//   - ctx: cancels a send blocked on a full inbox
	//   - msg: the host event
	//
	// Returns:
	//   - error: the context error, or ErrClosed once the loop has stopped
	Send(ctx context.Context, msg Message) error

	// Run handles queued messages until ctx is done. Handler errors are logged and passed
	// to the error listener; they do not stop the loop.
	//
	// Parameters:
	//   - ctx: stops the loop
	//
	// Returns:
	//   - error: the context error
	Run(ctx context.Context) error

	// Handle applies one message synchronously. It must only be called from the goroutine
	// that would otherwise run the loop.
	//
	// Parameters:
	//   - ctx: cancels scene loading
	//   - msg: the host event
	//
	// Returns:
	//   - error: the handler error
	Handle(ctx context.Context, msg Message) error

	// Registry returns the registry owned by the session.
	//
	// Returns:
	//   - *registry.Context: the registry
	Registry() *registry.Context
}

var _ Session = &session{}

// NewSession creates a new Session over a registry.
//
// Parameters:
//   - reg: the registry the session owns, must not be nil
//   - ld: the loader building scenes and plots, must not be nil
//   - options: functional options to configure the session
//
// Returns:
//   - Session: the new session
func NewSession(reg *registry.Context, ld loader.Loader, options ...SessionBuilderOption) Session {
	if reg == nil || ld == nil {
		panic("session: registry and loader are required")
	}
	s := &session{
		reg:       reg,
		loader:    ld,
		logger:    slog.Default(),
		inbox:     make(chan Message, 1024),
		done:      make(chan struct{}),
		snapshots: make(map[string]func()),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *session) Registry() *registry.Context {
	return s.reg
}

func (s *session) Send(ctx context.Context, msg Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.inbox:
			if err := s.Handle(ctx, msg); err != nil {
				s.logger.Error("handle message", "kind", msg.Kind(), "err", err)
				if s.onError != nil {
					s.onError(msg, err)
				}
			}
		}
	}
}

func (s *session) Handle(ctx context.Context, msg Message) error {
	switch m := deref(msg).(type) {
	case LoadScene:
		return s.loadScene(ctx, m)
	case InsertPlots:
		return s.insertPlots(ctx, m)
	case DeletePlots:
		return s.reg.Update(func() error {
			s.reg.DeletePlots(m.SceneID, m.PlotIDs)
			return nil
		})
	case DeleteScenes:
		return s.reg.Update(func() error {
			s.reg.DeleteScenes(m.SceneIDs, m.PlotIDs)
			return nil
		})
	case AttributeUpdate:
		return s.withPlot(m.PlotID, func(p plot.Plot) error {
			rebuilt, err := p.UpdateAttribute(m.Name, m.Values, m.Length)
			if err != nil {
				return err
			}
			if rebuilt {
				s.logger.Debug("geometry rebuilt", "plot", m.PlotID, "attribute", m.Name, "length", m.Length)
			}
			return nil
		})
	case UniformUpdate:
		return s.withPlot(m.PlotID, func(p plot.Plot) error {
			return p.UpdateUniform(m.Name, m.Value)
		})
	case VisibleUpdate:
		return s.withPlot(m.PlotID, func(p plot.Plot) error {
			p.SetVisible(m.Visible)
			return nil
		})
	case FacesUpdate:
		return s.withPlot(m.PlotID, func(p plot.Plot) error {
			p.UpdateFaces(m.Faces)
			return nil
		})
	case CameraUpdate:
		return s.withScene(m.SceneID, func(sc scene.Scene) error {
			if !sc.UpdateCamera(m.Camera.View, m.Camera.Projection, m.Camera.Resolution, m.Camera.EyePosition) {
				s.logger.Debug("camera update ignored, scene uses a controller", "scene", m.SceneID)
			}
			return nil
		})
	case SceneUpdate:
		return s.withScene(m.SceneID, func(sc scene.Scene) error {
			applySceneUpdate(sc, m)
			return nil
		})
	case Snapshot:
		return s.reg.Update(func() error {
			s.snapshot(m)
			return nil
		})
	}
	return fmt.Errorf("session: unhandled message %T", msg)
}

func (s *session) loadScene(ctx context.Context, m LoadScene) error {
	return s.reg.Update(func() error {
		root, err := s.loader.LoadScene(ctx, m.Scene, s.reg)
		if err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
		s.logger.Info("scene loaded", "scene", root.ID(), "plots", s.reg.PlotCount())
		return nil
	})
}

// insertPlots builds the plots outside the registry lock. Only the loop goroutine
// mutates the registry, so the scene cannot disappear in between.
func (s *session) insertPlots(ctx context.Context, m InsertPlots) error {
	var sc scene.Scene
	var ok bool
	s.reg.View(func() {
		sc, ok = s.reg.FindScene(m.SceneID)
	})
	if !ok {
		return nil
	}
	plots, err := s.loader.BuildPlots(ctx, sc.Camera(), m.Plots)
	if err != nil {
		return fmt.Errorf("insert plots into %s: %w", m.SceneID, err)
	}
	return s.reg.Update(func() error {
		for _, p := range plots {
			s.reg.AddPlot(m.SceneID, p)
		}
		return nil
	})
}

func (s *session) withPlot(id string, fn func(p plot.Plot) error) error {
	return s.reg.Update(func() error {
		p, ok := s.reg.FindPlot(id)
		if !ok {
			return nil
		}
		if err := fn(p); err != nil {
			return fmt.Errorf("plot %s: %w", id, err)
		}
		return nil
	})
}

func (s *session) withScene(id string, fn func(sc scene.Scene) error) error {
	return s.reg.Update(func() error {
		sc, ok := s.reg.FindScene(id)
		if !ok {
			return nil
		}
		return fn(sc)
	})
}

func (s *session) snapshot(m Snapshot) {
	if cancel, ok := s.snapshots[m.ID]; ok {
		cancel()
		delete(s.snapshots, m.ID)
	}
	if m.Cancel {
		return
	}
	id, reply := m.ID, m.Reply
	s.snapshots[id] = s.reg.OnNextInsert(func(p plot.Plot) {
		delete(s.snapshots, id)
		if reply != nil {
			reply(id, p.ID())
		}
	})
}

func applySceneUpdate(sc scene.Scene, m SceneUpdate) {
	if m.Visible != nil {
		sc.SetVisible(*m.Visible)
	}
	if m.BackgroundColor != nil {
		sc.SetBackgroundColor(*m.BackgroundColor)
	}
	if m.ClearScene != nil {
		sc.SetClear(*m.ClearScene)
	}
	if m.PixelArea != nil {
		a := *m.PixelArea
		sc.SetPixelArea(common.Rect{X: a[0], Y: a[1], Width: a[2], Height: a[3]})
	}
}

// deref turns the pointer messages produced by New into values.
func deref(msg Message) Message {
	switch m := msg.(type) {
	case *LoadScene:
		return *m
	case *InsertPlots:
		return *m
	case *DeletePlots:
		return *m
	case *DeleteScenes:
		return *m
	case *AttributeUpdate:
		return *m
	case *UniformUpdate:
		return *m
	case *VisibleUpdate:
		return *m
	case *FacesUpdate:
		return *m
	case *CameraUpdate:
		return *m
	case *SceneUpdate:
		return *m
	case *Snapshot:
		return *m
	}
	return msg
}
