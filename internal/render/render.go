// Package render draws debug views of the planner's state: the predicted
// ball path, the chosen intercept and the car's reachability plot.
//
// Renderers buffer draw calls per player and write them out on Flush.
// Nothing in the planning path depends on a renderer's output.
package render

import (
	"sort"
	"sync"

	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/intercept"
	"github.com/banshee-data/strikeplanner/internal/physics"
)

// Renderer receives debug drawings for one frame at a time.
type Renderer interface {
	DrawBallPath(playerIndex int, path *physics.BallPath)
	DrawIntercept(playerIndex int, in *intercept.Intercept)
	DrawDistancePlot(playerIndex int, plot *carpredict.DistancePlot)
	// Flush writes everything drawn since the last Flush.
	Flush() error
}

// Noop discards all drawings.
type Noop struct{}

func (Noop) DrawBallPath(int, *physics.BallPath)            {}
func (Noop) DrawIntercept(int, *intercept.Intercept)        {}
func (Noop) DrawDistancePlot(int, *carpredict.DistancePlot) {}
func (Noop) Flush() error                                   { return nil }

// scene is what one player drew during a frame.
type scene struct {
	path      *physics.BallPath
	intercept *intercept.Intercept
	plot      *carpredict.DistancePlot
}

// buffer collects scenes between flushes. It is shared by the concrete
// renderers.
type buffer struct {
	mu     sync.Mutex
	frame  int
	scenes map[int]*scene
}

func (b *buffer) sceneLocked(playerIndex int) *scene {
	if b.scenes == nil {
		b.scenes = make(map[int]*scene)
	}
	s, ok := b.scenes[playerIndex]
	if !ok {
		s = &scene{}
		b.scenes[playerIndex] = s
	}
	return s
}

func (b *buffer) DrawBallPath(playerIndex int, path *physics.BallPath) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sceneLocked(playerIndex).path = path
}

func (b *buffer) DrawIntercept(playerIndex int, in *intercept.Intercept) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sceneLocked(playerIndex).intercept = in
}

func (b *buffer) DrawDistancePlot(playerIndex int, plot *carpredict.DistancePlot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sceneLocked(playerIndex).plot = plot
}

// drain returns the buffered scenes in player order with the frame number
// they belong to, and starts a new frame.
func (b *buffer) drain() (int, []int, map[int]*scene) {
	b.mu.Lock()
	defer b.mu.Unlock()
	frame, scenes := b.frame, b.scenes
	b.frame++
	b.scenes = nil

	players := make([]int, 0, len(scenes))
	for p := range scenes {
		players = append(players, p)
	}
	sort.Ints(players)
	return frame, players, scenes
}
