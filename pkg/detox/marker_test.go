package detox

import (
	"testing"

	"github.com/pcode-tools/detox/pkg/ctree"
	"github.com/pcode-tools/detox/pkg/ptypes"
)

func intVar(ea uint64, idx int) *ctree.VarRef {
	return &ctree.VarRef{ItemInfo: ctree.At(ea), Index: idx, Typ: ptypes.Int()}
}

func TestMarkerSeedsArguments(t *testing.T) {
	fn := &ctree.Function{
		Name: "f",
		Lvars: []ctree.Lvar{
			{Name: "a1", Typ: ptypes.Int(), IsArg: true, Used: true},
			{Name: "t", Typ: ptypes.Int(), Used: true},
		},
		Body: &ctree.Block{ItemInfo: ctree.At(0)},
	}

	m := newMarker(fn)
	if !m.varLegit[0] {
		t.Error("argument should start legitimate")
	}
	if m.varLegit[1] {
		t.Error("plain local should not start legitimate")
	}
}

func TestMarkerArgumentReferenceDragsStatementAlong(t *testing.T) {
	// a1 = LOBYTE(t): the macro is junk, but a1 is an argument, so the
	// whole assignment statement gets flood-marked, t included
	assign := &ctree.ExprStmt{ItemInfo: ctree.At(0x10), X: &ctree.Binary{
		ItemInfo: ctree.At(0x10),
		Op:       "=",
		Left:     intVar(0x10, 0),
		Right: &ctree.Call{
			ItemInfo: ctree.At(0x12),
			Callee:   &ctree.Helper{ItemInfo: ctree.At(0x12), Name: "LOBYTE"},
			Args:     []ctree.Item{intVar(0x13, 1)},
		},
	}}
	fn := &ctree.Function{
		Name: "f",
		Lvars: []ctree.Lvar{
			{Name: "a1", Typ: ptypes.Int(), IsArg: true, Used: true},
			{Name: "t", Typ: ptypes.Int(), Used: true},
		},
		Body: &ctree.Block{ItemInfo: ctree.At(0), Stmts: []ctree.Item{assign}},
	}

	m := newMarker(fn)
	m.run()

	if !m.marks[assign] {
		t.Error("assignment to an argument should be marked")
	}
	if !m.varLegit[1] {
		t.Error("flood-marking the statement should mark t legitimate")
	}
}

func TestMarkerExceptionRecordEscape(t *testing.T) {
	ehType := ptypes.Trecord{Name: "CPPEH_RECORD"}
	ref := &ctree.VarRef{ItemInfo: ctree.At(0x10), Index: 0, Typ: ehType}
	stmt := &ctree.ExprStmt{ItemInfo: ctree.At(0x10), X: &ctree.Binary{
		ItemInfo: ctree.At(0x10),
		Op:       "=",
		Left:     ref,
		Right:    &ctree.Num{ItemInfo: ctree.At(0x12)},
	}}
	fn := &ctree.Function{
		Name:  "f",
		Lvars: []ctree.Lvar{{Name: "eh", Typ: ehType, Used: true}},
		Body:  &ctree.Block{ItemInfo: ctree.At(0), Stmts: []ctree.Item{stmt}},
	}

	m := newMarker(fn)
	m.run()

	if !m.marks[stmt] {
		t.Error("exception record reference should keep its statement")
	}
	if !m.varLegit[0] {
		t.Error("exception record variable should end up legitimate")
	}
}

func TestMarkerGoverningExpressionNeedsSecondPass(t *testing.T) {
	// if (t) { real_call(); } — the condition variable only becomes
	// legitimate once the if itself is marked, which happens on the pass
	// after the call marks its ancestors
	cond := intVar(0x10, 0)
	call := &ctree.ExprStmt{ItemInfo: ctree.At(0x14), X: &ctree.Call{
		ItemInfo: ctree.At(0x14),
		Callee:   &ctree.ObjRef{ItemInfo: ctree.At(0x14), Name: "real_call"},
	}}
	ifStmt := &ctree.If{
		ItemInfo: ctree.At(0x10),
		Cond:     cond,
		Then:     &ctree.Block{ItemInfo: ctree.At(0x12), Stmts: []ctree.Item{call}},
	}
	fn := &ctree.Function{
		Name:  "f",
		Lvars: []ctree.Lvar{{Name: "t", Typ: ptypes.Int(), Used: true}},
		Body:  &ctree.Block{ItemInfo: ctree.At(0), Stmts: []ctree.Item{ifStmt}},
	}

	m := newMarker(fn)
	m.run()

	if !m.marks[ifStmt] {
		t.Error("the guarding if should be marked")
	}
	if !m.marks[cond] {
		t.Error("the governing expression should be marked on a later pass")
	}
	if !m.varLegit[0] {
		t.Error("the condition variable should become legitimate")
	}
}

func TestMarkerForLoopMarksInitAndStep(t *testing.T) {
	init := &ctree.Binary{ItemInfo: ctree.At(0x10), Op: "=", Left: intVar(0x10, 0), Right: &ctree.Num{ItemInfo: ctree.At(0x10)}}
	cond := &ctree.Binary{ItemInfo: ctree.At(0x11), Op: "<", Left: intVar(0x11, 0), Right: &ctree.Num{ItemInfo: ctree.At(0x11), Value: 8}}
	step := &ctree.Unary{ItemInfo: ctree.At(0x12), Op: "++", X: intVar(0x12, 0)}
	body := &ctree.Block{ItemInfo: ctree.At(0x14), Stmts: []ctree.Item{
		&ctree.ExprStmt{ItemInfo: ctree.At(0x16), X: &ctree.Call{
			ItemInfo: ctree.At(0x16),
			Callee:   &ctree.ObjRef{ItemInfo: ctree.At(0x16), Name: "work"},
		}},
	}}
	loop := &ctree.For{ItemInfo: ctree.At(0x10), Init: init, Cond: cond, Step: step, Body: body}
	fn := &ctree.Function{
		Name:  "f",
		Lvars: []ctree.Lvar{{Name: "i", Typ: ptypes.Int(), Used: true}},
		Body:  &ctree.Block{ItemInfo: ctree.At(0), Stmts: []ctree.Item{loop}},
	}

	m := newMarker(fn)
	m.run()

	for name, it := range map[string]ctree.Item{"init": init, "cond": cond, "step": step} {
		if !m.marks[it] {
			t.Errorf("for-loop %s expression should be marked", name)
		}
	}
	if !m.varLegit[0] {
		t.Error("loop variable should be legitimate")
	}
}

func TestMarkerJunkStaysUnmarked(t *testing.T) {
	junk := &ctree.ExprStmt{ItemInfo: ctree.At(0x10), X: &ctree.Binary{
		ItemInfo: ctree.At(0x10),
		Op:       "=",
		Left:     intVar(0x10, 0),
		Right: &ctree.Call{
			ItemInfo: ctree.At(0x12),
			Callee:   &ctree.Helper{ItemInfo: ctree.At(0x12), Name: "HIBYTE"},
			Args:     []ctree.Item{intVar(0x13, 1)},
		},
	}}
	fn := &ctree.Function{
		Name: "f",
		Lvars: []ctree.Lvar{
			{Name: "x", Typ: ptypes.Int(), Used: true},
			{Name: "y", Typ: ptypes.Int(), Used: true},
		},
		Body: &ctree.Block{ItemInfo: ctree.At(0), Stmts: []ctree.Item{junk}},
	}

	m := newMarker(fn)
	m.run()

	if m.marks[junk] {
		t.Error("macro-only assignment should stay unmarked")
	}
	if m.varLegit[0] || m.varLegit[1] {
		t.Error("junk-only variables should stay illegitimate")
	}
}
