package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/room"
	"github.com/nstehr/hive/task"
)

// Avoidance keeps a node out of a unit's selection until the given tick.
type Avoidance struct {
	ID    string `json:"id"`
	Until int    `json:"until"`
}

// UnitRecord is what survives between ticks for one unit.
type UnitRecord struct {
	Role     policy.Role `json:"type"`
	Goal     task.Goal   `json:"target"`
	Working  bool        `json:"working"`
	HomeRoom string      `json:"homeroom"`
	Stuck    int         `json:"stuck,omitempty"`
	Avoid    []Avoidance `json:"avoid,omitempty"`
}

// Avoiding drops expired entries and returns the node ids still excluded at tick.
func (r *UnitRecord) Avoiding(tick int) []string {
	kept := r.Avoid[:0]
	var ids []string
	for _, a := range r.Avoid {
		if a.Until > tick {
			kept = append(kept, a)
			ids = append(ids, a.ID)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	r.Avoid = kept
	return ids
}

// Exclude adds or extends an avoidance for id.
func (r *UnitRecord) Exclude(id string, until int) {
	for i := range r.Avoid {
		if r.Avoid[i].ID == id {
			r.Avoid[i].Until = max(r.Avoid[i].Until, until)
			return
		}
	}
	r.Avoid = append(r.Avoid, Avoidance{ID: id, Until: until})
}

// Codec maps records to blobs in a Store. A scoped codec keys every record
// as "<scope>/<name>" so several players can share one store; Prune only
// ever sees its own scope.
type Codec struct {
	Store Store
	scope string
}

const scopeSep = "/"

func NewCodec(store Store) *Codec {
	return &Codec{Store: store}
}

// Scoped returns a codec over the same store limited to scope.
func (c *Codec) Scoped(scope string) *Codec {
	return &Codec{Store: c.Store, scope: strings.ReplaceAll(scope, scopeSep, "_")}
}

func (c *Codec) Scope() string { return c.scope }

func (c *Codec) key(name string) string {
	if c.scope == "" {
		return name
	}
	return c.scope + scopeSep + name
}

// owns maps a stored key back to a record name within this codec's scope.
func (c *Codec) owns(key string) (string, bool) {
	name := key
	if c.scope != "" {
		var ok bool
		if name, ok = strings.CutPrefix(key, c.scope+scopeSep); !ok {
			return "", false
		}
	}
	if strings.Contains(name, scopeSep) {
		return "", false
	}
	return name, true
}

// LoadUnit returns the record for name. ok is false when nothing is stored.
func (c *Codec) LoadUnit(ctx context.Context, name string) (UnitRecord, bool, error) {
	var rec UnitRecord
	ok, err := c.load(ctx, BucketUnits, c.key(name), &rec)
	return rec, ok, err
}

func (c *Codec) SaveUnit(ctx context.Context, name string, rec UnitRecord) error {
	return c.save(ctx, BucketUnits, c.key(name), rec)
}

func (c *Codec) LoadRoom(ctx context.Context, name string) (room.Record, bool, error) {
	var rec room.Record
	ok, err := c.load(ctx, BucketRooms, c.key(name), &rec)
	return rec, ok, err
}

func (c *Codec) SaveRoom(ctx context.Context, name string, rec room.Record) error {
	return c.save(ctx, BucketRooms, c.key(name), rec)
}

// Prune deletes unit records in this codec's scope whose name alive reports
// false and returns the removed names.
func (c *Codec) Prune(ctx context.Context, alive func(name string) bool) ([]string, error) {
	keys, err := c.Store.Keys(ctx, BucketUnits)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	var removed []string
	for _, k := range keys {
		name, ok := c.owns(k)
		if !ok || alive(name) {
			continue
		}
		if err := c.Store.Delete(ctx, BucketUnits, k); err != nil {
			return removed, fmt.Errorf("prune %s: %w", k, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (c *Codec) load(ctx context.Context, bucket, key string, v any) (bool, error) {
	blob, err := c.Store.Get(ctx, bucket, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (c *Codec) save(ctx context.Context, bucket, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return c.Store.Put(ctx, bucket, key, blob)
}
