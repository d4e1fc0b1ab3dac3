package multiagent

import (
	"context"
	"errors"
	"sync"
)

var errNoSlots = errors.New("multiagent: pool has no slots")

// Orchestrator dispatches tasks across a slot-based agent pool under one
// active strategy at a time.
type Orchestrator struct {
	mu       sync.Mutex
	slots    []*AgentSlot
	strategy StrategyName
	reducer  SwarmReducer
	fallback FallbackConfig
	rrCursor int
	events   EventCallback
}

// NewOrchestrator creates an orchestrator over slots using the round-robin
// strategy and the default retry budget.
func NewOrchestrator(slots []*AgentSlot) *Orchestrator {
	return &Orchestrator{
		slots:    slots,
		strategy: RoundRobin,
		fallback: DefaultFallbackConfig(),
	}
}

// SetStrategy switches the active assignment strategy.
func (o *Orchestrator) SetStrategy(name StrategyName) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strategy = name
}

// SetSwarmReducer configures the merge function used by the swarm strategy.
func (o *Orchestrator) SetSwarmReducer(r SwarmReducer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reducer = r
}

// SetFallbackConfig overrides the per-task retry budget.
func (o *Orchestrator) SetFallbackConfig(cfg FallbackConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallback = cfg
}

// OnEvent registers the orchestration event callback, replacing any prior one.
func (o *Orchestrator) OnEvent(cb EventCallback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = cb
}

func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	cb := o.events
	o.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

func (o *Orchestrator) currentStrategy() StrategyName {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.strategy
}

// Execute runs task under the active strategy, retrying on failure up to
// the configured budget before surfacing an OrchestratorError.
func (o *Orchestrator) Execute(ctx context.Context, task Task) (TaskResult, error) {
	strategy := o.currentStrategy()

	switch strategy {
	case Hierarchical:
		return o.executeHierarchical(ctx, task)
	case Competitive:
		return o.executeCompetitive(ctx, task)
	case Swarm:
		return o.executeSwarm(ctx, task)
	default:
		return o.executeSelected(ctx, task, strategy)
	}
}

// ExecutePlan runs every task in plan in order, using inputs only to seed
// the first task's description when non-empty (subsequent tasks already
// carry their own description).
func (o *Orchestrator) ExecutePlan(ctx context.Context, plan Plan, inputs string) PlanResult {
	result := PlanResult{Errors: make(map[string]error)}
	for i, task := range plan.Tasks {
		if i == 0 && inputs != "" && task.Description == "" {
			task.Description = inputs
		}
		res, err := o.Execute(ctx, task)
		if err != nil {
			result.Errors[task.ID] = err
			continue
		}
		result.Results = append(result.Results, res)
	}
	return result
}

func (o *Orchestrator) executeSelected(ctx context.Context, task Task, strategy StrategyName) (TaskResult, error) {
	var pick SelectFunc
	switch strategy {
	case LeastLoaded:
		pick = func(o *Orchestrator, _ Task) (*AgentSlot, error) { return leastLoadedSelect(o) }
	case Specialized:
		pick = specializedSelect
	default:
		pick = func(o *Orchestrator, _ Task) (*AgentSlot, error) { return roundRobinSelect(o) }
	}

	slot, err := pick(o, task)
	if err != nil {
		return TaskResult{}, err
	}

	var lastErr error
	attempts := 0
	for attempts <= o.fallback.MaxRetries {
		attempts++
		res, err := o.run(ctx, slot, task)
		if err == nil {
			return res, nil
		}
		lastErr = err
		o.emit(Event{Type: "task:retry", TaskID: task.ID, SlotID: slot.ID, Strategy: string(strategy), Err: err})
	}
	oerr := &OrchestratorError{TaskID: task.ID, Attempts: attempts, Err: lastErr}
	o.emit(Event{Type: "task:failed", TaskID: task.ID, SlotID: slot.ID, Strategy: string(strategy), Err: oerr})
	return TaskResult{}, oerr
}

func (o *Orchestrator) run(ctx context.Context, slot *AgentSlot, task Task) (TaskResult, error) {
	o.mu.Lock()
	slot.running++
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		slot.running--
		o.mu.Unlock()
	}()

	o.emit(Event{Type: "task:start", TaskID: task.ID, SlotID: slot.ID})
	res, err := slot.Run(ctx, task)
	if err != nil {
		return TaskResult{}, err
	}
	res.TaskID = task.ID
	res.SlotID = slot.ID
	o.emit(Event{Type: "task:done", TaskID: task.ID, SlotID: slot.ID})
	return res, nil
}

// executeHierarchical decomposes task into its declared subtasks
// recursively, executes each leaf task under round-robin dispatch, then
// joins their outputs in order.
func (o *Orchestrator) executeHierarchical(ctx context.Context, task Task) (TaskResult, error) {
	if len(task.Subtasks) == 0 {
		return o.executeSelected(ctx, task, RoundRobin)
	}
	combined := TaskResult{TaskID: task.ID}
	for _, sub := range task.Subtasks {
		res, err := o.executeHierarchical(ctx, sub)
		if err != nil {
			return TaskResult{}, err
		}
		combined.Output += res.Output
	}
	return combined, nil
}

// executeCompetitive races every slot in the pool against task, returning
// the first success and cancelling the rest.
func (o *Orchestrator) executeCompetitive(ctx context.Context, task Task) (TaskResult, error) {
	o.mu.Lock()
	slots := append([]*AgentSlot(nil), o.slots...)
	o.mu.Unlock()
	if len(slots) == 0 {
		return TaskResult{}, errNoSlots
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res TaskResult
		err error
	}
	results := make(chan outcome, len(slots))
	for _, slot := range slots {
		go func(s *AgentSlot) {
			res, err := o.run(raceCtx, s, task)
			results <- outcome{res, err}
		}(slot)
	}

	var lastErr error
	for i := 0; i < len(slots); i++ {
		out := <-results
		if out.err == nil {
			cancel()
			return out.res, nil
		}
		lastErr = out.err
	}
	oerr := &OrchestratorError{TaskID: task.ID, Attempts: len(slots), Err: lastErr}
	o.emit(Event{Type: "task:failed", TaskID: task.ID, Strategy: string(Competitive), Err: oerr})
	return TaskResult{}, oerr
}

// executeSwarm runs task against every slot concurrently with shared
// context, then reduces the results via the configured SwarmReducer.
func (o *Orchestrator) executeSwarm(ctx context.Context, task Task) (TaskResult, error) {
	o.mu.Lock()
	slots := append([]*AgentSlot(nil), o.slots...)
	reducer := o.reducer
	o.mu.Unlock()
	if len(slots) == 0 {
		return TaskResult{}, errNoSlots
	}
	if reducer == nil {
		return TaskResult{}, errors.New("multiagent: swarm strategy requires a SwarmReducer")
	}

	var wg sync.WaitGroup
	results := make([]TaskResult, len(slots))
	errs := make([]error, len(slots))
	for i, slot := range slots {
		wg.Add(1)
		go func(i int, s *AgentSlot) {
			defer wg.Done()
			res, err := o.run(ctx, s, task)
			results[i] = res
			errs[i] = err
		}(i, slot)
	}
	wg.Wait()

	successes := make([]TaskResult, 0, len(slots))
	for i, err := range errs {
		if err == nil {
			successes = append(successes, results[i])
		}
	}
	if len(successes) == 0 {
		oerr := &OrchestratorError{TaskID: task.ID, Attempts: len(slots), Err: errs[0]}
		return TaskResult{}, oerr
	}
	return reducer.Reduce(task, successes), nil
}

// Stats summarizes the pool's current load.
type Stats struct {
	SlotCount int
	Loads     map[string]int
}

// GetStats reports the pool's size and per-slot load.
func (o *Orchestrator) GetStats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	loads := make(map[string]int, len(o.slots))
	for _, s := range o.slots {
		loads[s.ID] = s.load()
	}
	return Stats{SlotCount: len(o.slots), Loads: loads}
}

// GetActiveAgents returns the IDs of slots with at least one running task.
func (o *Orchestrator) GetActiveAgents() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var active []string
	for _, s := range o.slots {
		if s.running > 0 {
			active = append(active, s.ID)
		}
	}
	return active
}
