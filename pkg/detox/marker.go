// Legitimacy marking: the first phase of a detox run.
// The marker repeatedly scans the whole tree, collecting the set of items
// known to be necessary and a per-slot variable bitmap, until a full scan
// adds nothing new. Marks are only ever added, so the fixed point is
// reached in at most one pass per item.
package detox

import (
	"github.com/pcode-tools/detox/pkg/ctree"
	"github.com/pcode-tools/detox/pkg/ptypes"
)

// exceptionRecordType is the display name of the compiler's exception
// unwinding record. Variables of this type are kept unconditionally even
// when nothing appears to read them.
const exceptionRecordType = "CPPEH_RECORD"

// marker holds the state of one marking fixed point
type marker struct {
	fn       *ctree.Function
	marks    map[ctree.Item]bool // items known to be necessary
	varLegit []bool              // per-slot variable legitimacy bitmap
	flooded  map[ctree.Item]bool // items already descended through while flood-marking
	changed  bool                // a scan added at least one new mark
}

func newMarker(fn *ctree.Function) *marker {
	m := &marker{
		fn:       fn,
		marks:    make(map[ctree.Item]bool),
		varLegit: make([]bool, len(fn.Lvars)),
		flooded:  make(map[ctree.Item]bool),
	}
	// arguments start legitimate and stay that way
	for i, v := range fn.Lvars {
		m.varLegit[i] = v.IsArg
	}
	return m
}

// run scans the tree until a complete pass finds no new legitimate item
func (m *marker) run() {
	for {
		m.changed = false
		ctree.Walk(m.fn.Body, &scanVisitor{m: m})
		if !m.changed {
			return
		}
	}
}

// scanVisitor is the marker's normal top-down traversal mode
type scanVisitor struct {
	m *marker
}

func (v *scanVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	m := v.m

	// An item marked on an earlier pass: pull its governing expressions
	// in as well. The "x" in "if (x)" is necessary once the if is, and a
	// for-loop additionally needs its init and step expressions.
	if m.marks[it] {
		switch s := it.(type) {
		case *ctree.If:
			m.floodOnce(s.Cond)
		case *ctree.While:
			m.floodOnce(s.Cond)
		case *ctree.DoWhile:
			m.floodOnce(s.Cond)
		case *ctree.Return:
			m.floodOnce(s.Value)
		case *ctree.For:
			m.floodOnce(s.Cond)
			m.floodOnce(s.Init)
			m.floodOnce(s.Step)
		}
		return ctree.ActionContinue
	}

	if !m.isCandidate(it) {
		return ctree.ActionContinue
	}

	// A necessary leaf: everything on the path up to the root is
	// necessary too. Statements that evaluate an expression wholesale
	// (expression statements, legitimate calls, returns) drag their
	// entire subtree along. Assumes a strict single-parent tree.
	for cur := it; cur != nil; cur = ctree.FindParentOf(m.fn.Body, cur) {
		if !m.marks[cur] {
			m.marks[cur] = true
			m.changed = true
		}
		switch c := cur.(type) {
		case *ctree.ExprStmt, *ctree.Return:
			m.floodOnce(cur)
		case *ctree.Call:
			if isLegitimateCall(c) {
				m.floodOnce(cur)
			}
		}
	}
	return ctree.ActionContinue
}

// isCandidate reports whether an item is immediately legitimate on its own:
// a reference to a known-legitimate or exception-record variable, a global
// reference, a genuine call, or a control transfer the pruner must respect.
func (m *marker) isCandidate(it ctree.Item) bool {
	switch e := it.(type) {
	case *ctree.VarRef:
		if e.Index >= 0 && e.Index < len(m.varLegit) && m.varLegit[e.Index] {
			return true
		}
		return renderType(e.Typ) == exceptionRecordType
	case *ctree.ObjRef:
		return true
	case *ctree.Call:
		return isLegitimateCall(e)
	case *ctree.Goto, *ctree.Break, *ctree.Continue, *ctree.Return, *ctree.Asm:
		return true
	}
	return false
}

// renderType renders a type descriptor to its one-line display form.
// A type that cannot be rendered compares equal to nothing.
func renderType(t ptypes.Type) string {
	if t == nil {
		return ""
	}
	return ctree.StripTags(t.String())
}

// floodOnce marks the entire subtree under root legitimate. Subtrees are
// flooded at most once per marking run; re-descending through an already
// flooded item is skipped.
func (m *marker) floodOnce(root ctree.Item) {
	if root == nil || m.flooded[root] {
		return
	}
	ctree.Walk(root, &descendVisitor{m: m})
}

// descendVisitor is the marker's flood-marking traversal mode
type descendVisitor struct {
	m *marker
}

func (v *descendVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	m := v.m
	if m.flooded[it] {
		return ctree.ActionSkipChildren
	}
	m.flooded[it] = true

	if vr, ok := it.(*ctree.VarRef); ok {
		if vr.Index >= 0 && vr.Index < len(m.varLegit) {
			m.varLegit[vr.Index] = true
		}
	}
	if !m.marks[it] {
		m.marks[it] = true
		m.changed = true
	}
	return ctree.ActionContinue
}
