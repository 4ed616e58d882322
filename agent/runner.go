package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nstehr/hive/journal"
	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/nav"
	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/room"
	"github.com/nstehr/hive/rules"
	"github.com/nstehr/hive/task"
	"github.com/nstehr/hive/world"
)

// Runner drives every owned unit through one tick. Nothing survives between
// ticks except what goes through Memory; the room cache is a rebuildable
// convenience.
type Runner struct {
	Memory  *memory.Codec
	Rooms   *room.Cache
	Engine  *rules.Engine
	Journal *journal.Writer // optional
	Body    []model.Part

	MaxOps     int
	StuckLimit int
	AvoidTicks int

	mu     sync.Mutex
	seeded map[string]bool
	prev   *stateSnapshot
}

// Options tune a Runner. Zero values fall back to defaults.
type Options struct {
	Body       []model.Part
	CacheTTL   int
	MaxOps     int
	StuckLimit int
	AvoidTicks int
}

func NewRunner(codec *memory.Codec, engine *rules.Engine, opts Options) *Runner {
	if len(opts.Body) == 0 {
		opts.Body = []model.Part{model.Move, model.Move, model.Carry, model.Work}
	}
	if opts.StuckLimit <= 0 {
		opts.StuckLimit = 3
	}
	if opts.AvoidTicks <= 0 {
		opts.AvoidTicks = 50
	}
	return &Runner{
		Memory:     codec,
		Rooms:      room.NewCache(opts.CacheTTL),
		Engine:     engine,
		Body:       opts.Body,
		MaxOps:     opts.MaxOps,
		StuckLimit: opts.StuckLimit,
		AvoidTicks: opts.AvoidTicks,
		seeded:     make(map[string]bool),
	}
}

// SetScope confines this runner's memory to one player's records, so
// sessions sharing a store never prune each other's units.
func (r *Runner) SetScope(player string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if player == "" || r.Memory.Scope() == player {
		return
	}
	r.Memory = r.Memory.Scoped(player)
	r.Rooms = room.NewCache(r.Rooms.TTL)
	r.seeded = make(map[string]bool)
	r.prev = nil
}

// UnitReport is one unit's transition for this tick.
type UnitReport struct {
	Unit     string
	Role     policy.Role
	Assigned bool
	task.Transition
}

// Report summarizes a tick.
type Report struct {
	Tick        int
	Units       int
	Fired       []string
	Pruned      []string
	Transitions []UnitReport
	Events      []Event
	Errors      int
}

// intentSource is satisfied by world.Snapshot.
type intentSource interface {
	Intents() []model.Intent
}

// RunTick processes the colony once. A failing unit is logged and skipped;
// only store-wide failures (pruning) abort the tick.
func (r *Runner) RunTick(ctx context.Context, w world.World) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tick := w.Tick()
	rep := Report{Tick: tick}
	r.seedRooms(ctx, w)

	owned := w.OwnedUnits()
	alive := make(map[string]bool, len(owned))
	for _, u := range owned {
		alive[u.Name] = true
	}
	pruned, err := r.Memory.Prune(ctx, func(name string) bool { return alive[name] })
	if err != nil {
		return rep, fmt.Errorf("tick %d: %w", tick, err)
	}
	rep.Pruned = pruned
	if len(pruned) > 0 {
		slog.Debug("pruned unit memory", "tick", tick, "units", pruned)
	}

	records := make(map[string]memory.UnitRecord, len(owned))
	for _, u := range owned {
		records[u.Name] = r.loadUnit(ctx, u)
	}

	rep.Fired = r.runRules(ctx, w, owned, records)

	env := policy.Env{World: w, Rooms: r.Rooms}
	machine := task.NewMachine(w, nav.NewPlanner(w, r.MaxOps), r.Rooms)
	for _, u := range owned {
		ur, err := r.runUnit(ctx, env, machine, u, records[u.Name])
		if err != nil {
			rep.Errors++
			slog.Error("unit failed", "unit", u.Name, "tick", tick, "error", err)
			continue
		}
		if ur != nil {
			rep.Transitions = append(rep.Transitions, *ur)
		}
	}
	rep.Units = len(owned)

	for name, rec := range r.Rooms.Drain() {
		if err := r.Memory.SaveRoom(ctx, name, rec); err != nil {
			rep.Errors++
			slog.Error("failed to save room memory", "room", name, "error", err)
		}
	}

	snap := takeSnapshot(w)
	rep.Events = detectEvents(snap, r.prev)
	r.prev = &snap
	for _, e := range rep.Events {
		slog.Info("colony event", "kind", e.Kind, "tick", e.Tick, "detail", e.Detail)
	}

	r.writeJournal(w, rep)
	slog.Info("tick done", "tick", tick, "units", rep.Units, "changed", len(rep.Transitions), "fired", rep.Fired, "errors", rep.Errors)
	return rep, nil
}

// seedRooms loads persisted room records the first time a room is seen so a
// restart does not force an immediate rebuild.
func (r *Runner) seedRooms(ctx context.Context, w world.World) {
	for _, rm := range w.Rooms() {
		if r.seeded[rm.Name] {
			continue
		}
		r.seeded[rm.Name] = true
		rec, ok, err := r.Memory.LoadRoom(ctx, rm.Name)
		if err != nil {
			slog.Warn("discarding room memory", "room", rm.Name, "error", err)
			continue
		}
		if ok && !r.Rooms.Has(rm.Name) {
			r.Rooms.Seed(rm.Name, rec)
		}
	}
}

// loadUnit never fails: a missing, unreadable or role-less record becomes a
// fresh record with the default role, homed where the unit stands.
func (r *Runner) loadUnit(ctx context.Context, u model.Unit) memory.UnitRecord {
	rec, ok, err := r.Memory.LoadUnit(ctx, u.Name)
	if err != nil {
		slog.Warn("discarding unit memory", "unit", u.Name, "error", err)
		ok = false
	}
	if !ok {
		rec = memory.UnitRecord{}
	}
	if _, known := policy.ParseRole(string(rec.Role)); !known {
		if rec.Role != "" {
			slog.Warn("unknown role, using default", "unit", u.Name, "role", rec.Role, "default", policy.DefaultRole)
		}
		rec.Role = policy.DefaultRole
	}
	if rec.HomeRoom == "" {
		rec.HomeRoom = u.Pos.Room
	}
	return rec
}

func (r *Runner) runRules(ctx context.Context, w world.World, owned []model.Unit, records map[string]memory.UnitRecord) []string {
	if r.Engine == nil {
		return nil
	}
	census := make(map[string]map[policy.Role]int)
	for _, u := range owned {
		rec := records[u.Name]
		if census[rec.HomeRoom] == nil {
			census[rec.HomeRoom] = make(map[policy.Role]int)
		}
		census[rec.HomeRoom][rec.Role]++
	}

	var fired []string
	for _, rm := range w.Rooms() {
		if !rm.Owned {
			continue
		}
		fired = append(fired, r.Engine.Evaluate(rules.RuleEnv{
			Tick:   w.Tick(),
			Room:   rm,
			World:  w,
			Census: census[rm.Name],
			Body:   r.Body,
			Memory: r.Memory,
			Ctx:    ctx,
		})...)
	}
	return fired
}

// runUnit assigns, advances and persists one unit. It returns a report only
// when the goal changed or was assigned.
func (r *Runner) runUnit(ctx context.Context, env policy.Env, m *task.Machine, u model.Unit, rec memory.UnitRecord) (ur *UnitReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			ur, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	if u.Spawning {
		return nil, r.Memory.SaveUnit(ctx, u.Name, rec)
	}

	tick := env.World.Tick()
	avoid := rec.Avoiding(tick)
	from := rec.Goal
	goal := rec.Goal
	assigned := false
	if goal.IsNone() {
		goal = policy.Assign(env, u, rec.Role, avoid)
		assigned = !goal.IsNone()
	}

	tr := m.Advance(u, goal, avoid)
	r.trackStuck(&rec, goal, tr, tick)

	rec.Goal = tr.Next
	rec.Working = !tr.Next.IsNone()
	if err := r.Memory.SaveUnit(ctx, u.Name, rec); err != nil {
		return nil, err
	}

	tr.From = from
	if !assigned && !tr.Changed() {
		return nil, nil
	}
	slog.Debug("goal transition", "unit", u.Name, "from", from, "to", tr.Next, "code", tr.Code, "reason", tr.Reason)
	return &UnitReport{Unit: u.Name, Role: rec.Role, Assigned: assigned, Transition: tr}, nil
}

// trackStuck counts consecutive path failures toward a harvest node. At the
// limit the node is excluded from this unit's selection for AvoidTicks. Only
// an accepted action or an actual step resets the count.
func (r *Runner) trackStuck(rec *memory.UnitRecord, goal task.Goal, tr task.Transition, tick int) {
	switch {
	case tr.PathFailed && goal.Kind == task.KindHarvest:
		rec.Stuck++
		if rec.Stuck >= r.StuckLimit {
			slog.Info("avoiding unreachable node", "node", goal.Target, "until", tick+r.AvoidTicks)
			rec.Exclude(goal.Target, tick+r.AvoidTicks)
			rec.Stuck = 0
		}
	case tr.Acted, tr.Moved && tr.Move == nav.Moving:
		rec.Stuck = 0
	}
}

func (r *Runner) writeJournal(w world.World, rep Report) {
	if r.Journal == nil {
		return
	}
	entry := journal.TickEntry{
		Tick:   rep.Tick,
		Units:  rep.Units,
		Pruned: rep.Pruned,
		Errors: rep.Errors,
	}
	if src, ok := w.(intentSource); ok {
		for _, in := range src.Intents() {
			entry.Intents++
			if in.Action == model.IntentSpawn {
				entry.Spawned = append(entry.Spawned, in.Name)
			}
		}
	}
	for _, ur := range rep.Transitions {
		entry.Transitions = append(entry.Transitions, journal.Transition{
			Unit:   ur.Unit,
			From:   ur.From.String(),
			To:     ur.Next.String(),
			Code:   ur.Code.String(),
			Move:   moveLabel(ur.Transition),
			Reason: ur.Reason,
		})
	}
	for _, e := range rep.Events {
		entry.Events = append(entry.Events, journal.Event{Kind: string(e.Kind), Detail: e.Detail})
	}
	if err := r.Journal.Write(entry); err != nil {
		slog.Error("journal write failed", "tick", rep.Tick, "error", err)
	}
}

func moveLabel(t task.Transition) string {
	if !t.Moved {
		return ""
	}
	return t.Move.String()
}
