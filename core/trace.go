package core

type Step struct {
	State     State
	Action    Action
	Reward    float64
	NextState State
	Done      bool
}

// Trace is the rollout of a single episode.
type Trace struct {
	steps []*Step
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
	}
}

func (t *Trace) AddStep(s *Step) {
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	return t.steps[i]
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	return t.steps[len(t.steps)-1]
}

func (t *Trace) States() []State {
	out := make([]State, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.State
	}
	return out
}

func (t *Trace) Actions() []Action {
	out := make([]Action, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.Action
	}
	return out
}

func (t *Trace) Rewards() []float64 {
	out := make([]float64, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.Reward
	}
	return out
}

func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, s := range t.steps {
		total += s.Reward
	}
	return total
}
