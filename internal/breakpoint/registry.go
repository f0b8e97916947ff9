// Package breakpoint implements spec.md §4.2's BreakpointRegistry.
//
// Grounded on debugger/debug_objects.go's Breakpoint{File,Line} plus
// AddBreakpoints/RemoveBreakpoints in debugger/go_debugger/go_debugger.go,
// generalized from the teacher's single-identity (file,line) model to the
// two-stage nominal/resolved identity spec.md §3 requires. Actual-location
// dedup (spec.md §4.2's second predicate) uses a hashset the way the
// teacher's utils/ds_util.go turns a slice into a hashset.Set, keyed here on
// "scriptID:line:column" instead of an arbitrary element.
package breakpoint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

// Breakpoint is a single registered breakpoint, spec.md §3.
type Breakpoint struct {
	Fingerprint string // client-facing breakpointId
	Nominal     protocol.NominalKey

	ResolvedID   int // engine-assigned; -1 until accepted
	ScriptID     string
	ResolvedLine int
	ResolvedCol  int
}

func (b *Breakpoint) IsResolved() bool { return b.ResolvedID >= 0 }

func newNominal(key protocol.NominalKey) *Breakpoint {
	return &Breakpoint{
		Fingerprint: key.Fingerprint(),
		Nominal:     key,
		ResolvedID:  -1,
	}
}

// Registry stores nominal breakpoints keyed by fingerprint, resolves them
// against loaded scripts and deduplicates by both nominal fingerprint and
// resolved identity, per spec.md §4.2.
type Registry struct {
	mu          sync.Mutex
	byFinger    map[string]*Breakpoint
	byResolved  map[int]*Breakpoint
	actualSeen  *hashset.Set // "scriptID:line:col" of already-registered resolved locations
}

func NewRegistry() *Registry {
	return &Registry{
		byFinger:   make(map[string]*Breakpoint),
		byResolved: make(map[int]*Breakpoint),
		actualSeen: hashset.New(),
	}
}

func actualKey(scriptID string, line, col int) string {
	return fmt.Sprintf("%s:%d:%d", scriptID, line, col)
}

// Insert registers a nominal breakpoint, rejecting a duplicate fingerprint.
func (r *Registry) Insert(key protocol.NominalKey) (*Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp := key.Fingerprint()
	if _, exists := r.byFinger[fp]; exists {
		return nil, ierrors.ErrBreakpointExists
	}
	bp := newNominal(key)
	r.byFinger[fp] = bp
	return bp, nil
}

// MarkResolved records that bp resolved against scriptID at (line,col) with
// the engine-assigned resolvedID. It enforces spec.md §4.2's second
// predicate: reject if another breakpoint already has the same resolved id
// OR the same (scriptID,line,column) actual location.
func (r *Registry) MarkResolved(bp *Breakpoint, resolvedID int, scriptID string, line, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byResolved[resolvedID]; exists {
		return ierrors.ErrBreakpointExists
	}
	ak := actualKey(scriptID, line, col)
	if r.actualSeen.Contains(ak) {
		return ierrors.ErrBreakpointExists
	}
	bp.ResolvedID = resolvedID
	bp.ScriptID = scriptID
	bp.ResolvedLine = line
	bp.ResolvedCol = col
	r.byResolved[resolvedID] = bp
	r.actualSeen.Add(ak)
	return nil
}

// Remove deletes a breakpoint by its client-facing fingerprint.
func (r *Registry) Remove(fingerprint string) (*Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bp, ok := r.byFinger[fingerprint]
	if !ok {
		return nil, ierrors.ErrBreakpointNotFound
	}
	delete(r.byFinger, fingerprint)
	if bp.IsResolved() {
		delete(r.byResolved, bp.ResolvedID)
		r.actualSeen.Remove(actualKey(bp.ScriptID, bp.ResolvedLine, bp.ResolvedCol))
	}
	return bp, nil
}

// Clear empties the registry, used by Debugger.disable.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFinger = make(map[string]*Breakpoint)
	r.byResolved = make(map[int]*Breakpoint)
	r.actualSeen = hashset.New()
}

// All returns every registered breakpoint (resolved or not), in a stable
// order (fingerprint order) so callers that iterate for re-resolution get
// deterministic behavior across runs.
func (r *Registry) All() []*Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Breakpoint, 0, len(r.byFinger))
	for _, bp := range r.byFinger {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// FindByResolvedID looks up a breakpoint by its engine-assigned id, used by
// the condition evaluator when a break event carries a resolved id.
func (r *Registry) FindByResolvedID(id int) (*Breakpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bp, ok := r.byResolved[id]
	return bp, ok
}
