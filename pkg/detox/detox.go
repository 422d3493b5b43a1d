// Package detox removes junk code and junk variables from one decompiled
// function. Decompilers faithfully translate the padding, cache-priming
// stores and flag gymnastics that obfuscated binaries carry; almost none
// of it contributes to the function's behavior. Detox marks the items and
// variables that do contribute (legitimacy marking), deletes the rest
// while keeping goto targets valid (pruning), and clears the display flag
// on variables nothing legitimate touches.
//
// The pass is purely syntactic. Call legitimacy is a name check against
// the decompiler's trivial-macro list, not a behavioral proof, and no
// analysis crosses function boundaries.
package detox

import (
	"errors"

	"github.com/pcode-tools/detox/pkg/ctree"
)

// ErrNoFunction reports a detox invocation without a function body.
var ErrNoFunction = errors.New("detox: no function body")

// Detox removes junk statements and junk variables from fn, in place.
// The function must be at its final maturity: type information, variable
// slots and goto labels are taken as settled. On error the tree is left
// untouched. Each invocation is independent; nothing carries over between
// functions.
func Detox(fn *ctree.Function) error {
	if fn == nil || fn.Body == nil {
		return ErrNoFunction
	}

	m := newMarker(fn)
	m.run()

	p := &pruner{fn: fn, marks: m.marks}
	p.run()

	finalizeVars(fn, m.varLegit)
	return nil
}

// finalizeVars clears the display flag on every variable the marker never
// found legitimate. Arguments are seeded legitimate, so they are never
// cleared here.
func finalizeVars(fn *ctree.Function, varLegit []bool) {
	for i := range fn.Lvars {
		if i < len(varLegit) && !varLegit[i] {
			fn.Lvars[i].Used = false
		}
	}
}
