// Package cartpole simulates the classic cart-pole balancing task.
package cartpole

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/zeu5/reinforce-cartpole/core"
)

const (
	gravity        = 9.8
	massCart       = 1.0
	massPole       = 0.1
	length         = 0.5 // half the pole length
	totalMass      = massCart + massPole
	poleMassLength = massPole * length
	forceMag       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0

	DefaultMaxSteps = 500
	NumActions      = 2
	NumObservations = 4
)

const (
	PushLeft core.Action = iota
	PushRight
)

type Config struct {
	// MaxSteps truncates episodes. Zero means DefaultMaxSteps.
	MaxSteps int
	Seed     int64
}

// Env holds the cart position and velocity and the pole angle and angular
// velocity. Every step taken earns a reward of 1.
type Env struct {
	X        float64
	XDot     float64
	Theta    float64
	ThetaDot float64

	Steps    int
	MaxSteps int

	done  bool
	rand  *rand.Rand
	space *core.Discrete
}

var _ core.Environment = &Env{}

func NewEnv(cfg Config) *Env {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Env{
		MaxSteps: maxSteps,
		done:     true,
		rand:     rand.New(rand.NewSource(cfg.Seed)),
		space:    core.NewDiscrete(NumActions, cfg.Seed+1),
	}
}

func (e *Env) ActionSpace() core.ActionSpace {
	return e.space
}

func (e *Env) Reset() (core.State, error) {
	e.X = e.rand.Float64()*0.1 - 0.05
	e.XDot = e.rand.Float64()*0.1 - 0.05
	e.Theta = e.rand.Float64()*0.1 - 0.05
	e.ThetaDot = e.rand.Float64()*0.1 - 0.05
	e.Steps = 0
	e.done = false
	return e.state(), nil
}

func (e *Env) Step(action core.Action, _ *core.StepContext) (core.State, float64, bool, error) {
	if e.done {
		return nil, 0, true, core.ErrEpisodeDone
	}
	if !e.space.Contains(action) {
		return nil, 0, false, fmt.Errorf("%w: %d", core.ErrInvalidAction, action)
	}
	force := forceMag
	if action == PushLeft {
		force = -forceMag
	}

	cosTheta := math.Cos(e.Theta)
	sinTheta := math.Sin(e.Theta)

	temp := (force + poleMassLength*e.ThetaDot*e.ThetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	e.X += tau * e.XDot
	e.XDot += tau * xAcc
	e.Theta += tau * e.ThetaDot
	e.ThetaDot += tau * thetaAcc
	e.Steps++

	e.done = e.Failed() || e.Steps >= e.MaxSteps
	return e.state(), 1.0, e.done, nil
}

// Failed reports whether the cart left the track or the pole fell past the
// angle threshold.
func (e *Env) Failed() bool {
	return e.X < -xThreshold || e.X > xThreshold || e.Theta < -thetaThreshold || e.Theta > thetaThreshold
}

func (e *Env) state() core.State {
	return core.State{e.X, e.XDot, e.Theta, e.ThetaDot}
}
