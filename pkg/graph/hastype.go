package graph

import (
	"github.com/l3aro/go-cpg/pkg/types"
)

// TypeListener receives notifications about type changes of a publisher node.
// Only node kinds that genuinely subscribe to other nodes implement it
// (casts, initializer lists, construct expressions, variable declarations).
type TypeListener interface {
	TypeChanged(src HasType, root HasType, oldType *types.Type)
	PossibleSubTypesChanged(src HasType, root HasType, oldSubTypes []*types.Type)
}

// HasType is implemented by every node that carries a declared type and a set
// of possible subtypes: all expressions and all value declarations.
type HasType interface {
	Node
	Type() *types.Type
	SetType(t *types.Type, root HasType)
	TypeOrigin() types.Origin
	SetTypeOrigin(o types.Origin)
	PropagationType() *types.Type
	PossibleSubTypes() []*types.Type
	SetPossibleSubTypes(s []*types.Type, root HasType)
	RegisterTypeListener(l TypeListener)
	UnregisterTypeListener(l TypeListener)
	TypeListeners() []TypeListener
}

// TypeHolder implements the publish side of the type-propagation bus. Typed
// nodes embed it; the owner back-reference makes notifications carry the
// outer node as src so that overridden PropagationType implementations are
// seen by subscribers.
type TypeHolder struct {
	owner      HasType
	typ        *types.Type
	typeOrigin types.Origin
	subTypes   []*types.Type
	listeners  []TypeListener

	// activeRoots counts propagation frames per epoch token. A holder that
	// is already inside a cascade for a given root refuses to re-enter it.
	activeRoots map[HasType]int
}

func (t *TypeHolder) initTypeHolder(owner HasType, unknown *types.Type) {
	t.owner = owner
	t.typ = unknown
	t.typeOrigin = types.OriginUnresolved
	t.activeRoots = make(map[HasType]int)
}

// Type returns the current declared type; never nil once initialized.
func (t *TypeHolder) Type() *types.Type { return t.typ }

// TypeOrigin returns the provenance of the current type.
func (t *TypeHolder) TypeOrigin() types.Origin { return t.typeOrigin }

// SetTypeOrigin stamps the provenance of the current type.
func (t *TypeHolder) SetTypeOrigin(o types.Origin) { t.typeOrigin = o }

// PropagationType is the type advertised to subscribers. Defaults to the
// node's own type; casts override it to their declared target.
func (t *TypeHolder) PropagationType() *types.Type { return t.typ }

// SetType updates the declared type and synchronously notifies subscribers.
// root is the epoch token of the running cascade; pass nil when originating
// a new one. Setting the same type again, regressing a known type to
// Unknown, or re-entering an active cascade are all no-ops.
func (t *TypeHolder) SetType(newType *types.Type, root HasType) {
	if newType == nil {
		return
	}
	if root == nil {
		root = t.owner
	}
	if t.activeRoots[root] > 0 {
		return
	}
	if newType.IsUnknown() && !t.typ.IsUnknown() {
		return
	}
	if t.typ == newType {
		return
	}

	oldType := t.typ
	t.typ = newType

	t.activeRoots[root]++
	for _, l := range t.listenerSnapshot() {
		l.TypeChanged(t.owner, root, oldType)
	}
	t.activeRoots[root]--
	if t.activeRoots[root] == 0 {
		delete(t.activeRoots, root)
	}
}

// PossibleSubTypes returns the current subtype set.
func (t *TypeHolder) PossibleSubTypes() []*types.Type {
	return append([]*types.Type(nil), t.subTypes...)
}

// SetPossibleSubTypes replaces the subtype set and notifies subscribers.
func (t *TypeHolder) SetPossibleSubTypes(s []*types.Type, root HasType) {
	if root == nil {
		root = t.owner
	}
	if t.activeRoots[root] > 0 {
		return
	}
	s = dedupeTypes(s)
	if sameTypeSet(t.subTypes, s) {
		return
	}

	old := t.subTypes
	t.subTypes = s

	t.activeRoots[root]++
	for _, l := range t.listenerSnapshot() {
		l.PossibleSubTypesChanged(t.owner, root, old)
	}
	t.activeRoots[root]--
	if t.activeRoots[root] == 0 {
		delete(t.activeRoots, root)
	}
}

// RegisterTypeListener subscribes l and immediately replays the current type
// and subtype state to it, so late subscribers catch up with types that were
// set before the wiring existed.
func (t *TypeHolder) RegisterTypeListener(l TypeListener) {
	if l == nil {
		return
	}
	for _, existing := range t.listeners {
		if existing == l {
			return
		}
	}
	l.TypeChanged(t.owner, t.owner, t.typ)
	l.PossibleSubTypesChanged(t.owner, t.owner, t.PossibleSubTypes())
	t.listeners = append(t.listeners, l)
}

// UnregisterTypeListener removes l; safe to call during a notification.
func (t *TypeHolder) UnregisterTypeListener(l TypeListener) {
	for i, existing := range t.listeners {
		if existing == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// TypeListeners returns a snapshot of the subscriber set.
func (t *TypeHolder) TypeListeners() []TypeListener { return t.listenerSnapshot() }

func (t *TypeHolder) listenerSnapshot() []TypeListener {
	return append([]TypeListener(nil), t.listeners...)
}

// DefaultTypeChanged is the standard subscriber policy: keep a known type if
// the publisher merely re-announced its previous one, otherwise adopt the
// publisher's propagation type, stamping DATAFLOW on an actual change.
func DefaultTypeChanged(dst HasType, src HasType, root HasType, oldType *types.Type) {
	if !dst.Type().IsUnknown() && src.PropagationType() == oldType {
		return
	}
	previous := dst.Type()
	dst.SetType(src.PropagationType(), root)
	if dst.Type() != previous {
		dst.SetTypeOrigin(types.OriginDataflow)
	}
}

// DefaultPossibleSubTypesChanged unions the publisher's subtypes into dst and
// republishes.
func DefaultPossibleSubTypesChanged(dst HasType, src HasType, root HasType) {
	union := append(dst.PossibleSubTypes(), src.PossibleSubTypes()...)
	dst.SetPossibleSubTypes(union, root)
}

func dedupeTypes(in []*types.Type) []*types.Type {
	seen := make(map[*types.Type]struct{}, len(in))
	out := make([]*types.Type, 0, len(in))
	for _, t := range in {
		if t == nil {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sameTypeSet(a, b []*types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[*types.Type]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
