package core

import (
	"context"
	"errors"
	"math/rand"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrEpisodeDone   = errors.New("step called on a finished episode")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// State is the numeric observation vector of an environment.
type State []float64

func (s State) Copy() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// Action indexes into a discrete action space.
type Action int

type ActionSpace interface {
	Size() int
	Sample() Action
}

type Environment interface {
	// Reset starts a new episode and returns its initial state.
	Reset() (State, error)
	// Step advances the episode by one action and returns the next state,
	// the reward for the transition and whether the episode has ended.
	Step(Action, *StepContext) (State, float64, bool, error)
	ActionSpace() ActionSpace
}

// Discrete is the action space {0, ..., N-1}.
type Discrete struct {
	N int

	rand *rand.Rand
}

var _ ActionSpace = &Discrete{}

func NewDiscrete(n int, seed int64) *Discrete {
	return &Discrete{
		N:    n,
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (d *Discrete) Size() int {
	return d.N
}

func (d *Discrete) Sample() Action {
	return Action(d.rand.Intn(d.N))
}

func (d *Discrete) Contains(a Action) bool {
	return a >= 0 && int(a) < d.N
}

type EpisodeContext struct {
	Context context.Context
	Run     int
	// Episode counts completed training episodes before this one. Greedy
	// episodes carry the episode count at which validation ran.
	Episode       int
	Horizon       int
	StartTimeStep int
	Mode          SamplingMode

	Trace *Trace
	// Loss of the update computed from this episode, zero for greedy episodes.
	Loss float64
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
	}
}

type StepContext struct {
	Step int
	*EpisodeContext
}
