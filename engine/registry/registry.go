package registry

import (
	"fmt"
	"sync"

	"cogentcore.org/core/base/ordmap"

	"github.com/Carmen-Shannon/oxy-plot/engine/plot"
	"github.com/Carmen-Shannon/oxy-plot/engine/scene"
)

// Surface is the drawing target root scenes are attached to. The renderer implements it.
type Surface interface {
	// AddScene attaches a root scene.
	AddScene(s scene.Scene)
	// RemoveScene detaches a scene. Removing a scene that is not attached is a no-op.
	RemoveScene(s scene.Scene)
}

// InsertListener is notified after a plot has been inserted into a scene.
type InsertListener func(p plot.Plot)

type insertListener struct {
	id uint64
	fn InsertListener
}

// Context holds the scene and plot registries of one session.
//
// All mutating methods are meant to be called from a single goroutine, the session loop,
// and take no locks themselves. Update and View let that goroutine and the render loop
// share the context: the session mutates inside Update, the renderer reads inside View.
//
// Lookups of absent ids are never errors: finds return what is present and deletes of
// absent ids do nothing.
type Context struct {
	mu sync.RWMutex

	surface Surface
	scenes  *ordmap.Map[string, scene.Scene]
	plots   map[string]plot.Plot
	owners  map[string]scene.Scene

	listeners      []insertListener
	nextListenerID uint64
}

// NewContext creates an empty Context.
//
// Parameters:
//   - options: functional options to configure the context
//
// Returns:
//   - *Context: the new context
func NewContext(options ...ContextBuilderOption) *Context {
	c := &Context{
		scenes: ordmap.New[string, scene.Scene](),
		plots:  make(map[string]plot.Plot),
		owners: make(map[string]scene.Scene),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Update runs fn with exclusive access to the context.
//
// Parameters:
//   - fn: the mutation
//
// Returns:
//   - error: the error returned by fn
func (c *Context) Update(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// View runs fn with shared read access to the context.
//
// Parameters:
//   - fn: the read
func (c *Context) View(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// SetSurface sets the drawing target root scenes are detached from on deletion.
//
// Parameters:
//   - s: the surface, nil for none
func (c *Context) SetSurface(s Surface) {
	c.surface = s
}

// Surface returns the drawing target, nil if none was set.
//
// Returns:
//   - Surface: the surface
func (c *Context) Surface() Surface {
	return c.surface
}

// AddScene registers a scene, replacing a scene with the same id.
//
// Parameters:
//   - s: the scene
func (c *Context) AddScene(s scene.Scene) {
	c.scenes.Add(s.ID(), s)
}

// FindScene looks up a scene.
//
// Parameters:
//   - id: the scene id
//
// Returns:
//   - scene.Scene: the scene
//   - bool: false if absent
func (c *Context) FindScene(id string) (scene.Scene, bool) {
	return c.scenes.ValueByKeyTry(id)
}

// Scenes returns every registered scene in registration order.
//
// Returns:
//   - []scene.Scene: the scenes
func (c *Context) Scenes() []scene.Scene {
	return c.scenes.Values()
}

// Roots returns the registered scenes without a parent, in registration order.
//
// Returns:
//   - []scene.Scene: the root scenes
func (c *Context) Roots() []scene.Scene {
	var out []scene.Scene
	for _, kv := range c.scenes.Order {
		if kv.Value.Parent() == nil {
			out = append(out, kv.Value)
		}
	}
	return out
}

// FindPlot looks up a plot.
//
// Parameters:
//   - id: the plot id
//
// Returns:
//   - plot.Plot: the plot
//   - bool: false if absent
func (c *Context) FindPlot(id string) (plot.Plot, bool) {
	p, ok := c.plots[id]
	return p, ok
}

// FindPlots returns the plots of ids that are present, in the order of ids.
//
// Parameters:
//   - ids: the plot ids
//
// Returns:
//   - []plot.Plot: the present plots
func (c *Context) FindPlots(ids []string) []plot.Plot {
	out := make([]plot.Plot, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.plots[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PlotCount returns the number of registered plots.
//
// Returns:
//   - int: the plot count
func (c *Context) PlotCount() int {
	return len(c.plots)
}

// AddPlot inserts a built plot into a scene and notifies the insert listeners.
// An existing plot with the same id is deleted first. A missing scene makes this a no-op.
//
// Parameters:
//   - sceneID: the owning scene id
//   - p: the plot
//
// Returns:
//   - bool: false if the scene is absent
func (c *Context) AddPlot(sceneID string, p plot.Plot) bool {
	s, ok := c.scenes.ValueByKeyTry(sceneID)
	if !ok {
		return false
	}
	if _, exists := c.plots[p.ID()]; exists {
		c.deletePlot(p.ID())
	}
	s.AddPlot(p)
	c.plots[p.ID()] = p
	c.owners[p.ID()] = s
	c.dispatchInsert(p)
	return true
}

// InsertPlot builds one plot per spec with the scene's camera and inserts it.
// Insert listeners fire after every single insertion. A missing scene makes this a no-op.
//
// Parameters:
//   - sceneID: the owning scene id
//   - specs: the host plot descriptions
//
// Returns:
//   - error: the first build error; plots before it stay inserted
func (c *Context) InsertPlot(sceneID string, specs ...plot.Spec) error {
	s, ok := c.scenes.ValueByKeyTry(sceneID)
	if !ok {
		return nil
	}
	for _, spec := range specs {
		p, err := plot.NewPlot(spec, s.Camera())
		if err != nil {
			return fmt.Errorf("insert into scene %s: %w", sceneID, err)
		}
		c.AddPlot(sceneID, p)
	}
	return nil
}

// DeletePlots removes plots from their scene, disposes them and forgets them.
// Ids that are absent are skipped.
//
// Parameters:
//   - sceneID: the scene the host believes owns the plots
//   - ids: the plot ids
func (c *Context) DeletePlots(sceneID string, ids []string) {
	for _, id := range ids {
		c.deletePlot(id)
	}
}

// DeleteScene tears a scene down: its child scenes recursively, then its plots, then the
// scene itself, which is detached from its parent and the surface. Absent ids are no-ops.
//
// Parameters:
//   - id: the scene id
func (c *Context) DeleteScene(id string) {
	s, ok := c.scenes.ValueByKeyTry(id)
	if !ok {
		return
	}
	c.teardown(s)
}

// teardown works on the scene object rather than its id, so children that were never
// registered, or were registered after their parent, are still released.
func (c *Context) teardown(s scene.Scene) {
	if cur, ok := c.scenes.ValueByKeyTry(s.ID()); ok && cur == s {
		c.scenes.DeleteKey(s.ID())
	}
	for _, child := range s.Children() {
		c.teardown(child)
	}
	for _, p := range s.Plots() {
		c.forgetPlot(p)
	}
	s.ClearContainer()
	if parent := s.Parent(); parent != nil {
		parent.RemoveChild(s.ID())
	}
	if c.surface != nil {
		c.surface.RemoveScene(s)
	}
}

// DeleteScenes deletes the named plots first and then the named scenes.
//
// Parameters:
//   - sceneIDs: the scene ids
//   - plotIDs: the plot ids
func (c *Context) DeleteScenes(sceneIDs, plotIDs []string) {
	for _, id := range plotIDs {
		c.deletePlot(id)
	}
	for _, id := range sceneIDs {
		c.DeleteScene(id)
	}
}

// OnNextInsert registers a one-shot listener that runs after the next plot insertion.
//
// Parameters:
//   - fn: the listener
//
// Returns:
//   - func(): cancels the listener if it has not run yet
func (c *Context) OnNextInsert(fn InsertListener) (cancel func()) {
	c.nextListenerID++
	id := c.nextListenerID
	c.listeners = append(c.listeners, insertListener{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// dispatchInsert drains the listener set before running it, so listeners registered or
// cancelled during dispatch only affect the next insertion.
func (c *Context) dispatchInsert(p plot.Plot) {
	pending := c.listeners
	c.listeners = nil
	for _, l := range pending {
		l.fn(p)
	}
}

func (c *Context) deletePlot(id string) {
	p, ok := c.plots[id]
	if !ok {
		return
	}
	if owner, ok := c.owners[id]; ok {
		owner.RemovePlot(id)
	}
	c.forgetPlot(p)
}

func (c *Context) forgetPlot(p plot.Plot) {
	delete(c.plots, p.ID())
	delete(c.owners, p.ID())
	p.Dispose()
}
