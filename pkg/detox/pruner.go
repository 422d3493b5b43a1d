// Pruning: the second phase of a detox run.
// The pruner deletes statements that the marker did not find necessary,
// erases empty statements from blocks, and keeps every goto target valid
// while doing so. Each structural change stops the traversal; the outer
// loop restarts from the root until a full pass deletes nothing.
package detox

import "github.com/pcode-tools/detox/pkg/ctree"

// toReturn is the rewrite target meaning "convert the goto to a return"
// rather than redirecting it to another label.
const toReturn = ctree.NoLabel

// pruner holds the state of one pruning fixed point. The mark set and
// variable bitmap produced by the marker are read-only here.
type pruner struct {
	fn     *ctree.Function
	marks  map[ctree.Item]bool
	pruned bool // a deletion occurred during the current pass
}

// run prunes the tree until a complete pass deletes nothing
func (p *pruner) run() {
	for {
		p.pruned = false
		ctree.Walk(p.fn.Body, &pruneVisitor{p: p})
		if !p.pruned {
			return
		}
	}
}

// pruneVisitor is the pruner's default traversal mode
type pruneVisitor struct {
	p *pruner
}

func (v *pruneVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	p := v.p

	// Blocks shed one empty child per pass; block contents shift, so the
	// traversal restarts after each erasure.
	if b, ok := it.(*ctree.Block); ok {
		for _, kid := range b.Stmts {
			switch kid.(type) {
			case *ctree.Empty, *ctree.EmptyExpr:
				ctree.EraseFromBlock(b, kid)
				p.pruned = true
				return ctree.ActionStop
			}
		}
		return ctree.ActionContinue
	}

	// Control transfers, empties, inline assembly and returns are never
	// deleted, and nothing beneath them is either.
	switch it.(type) {
	case *ctree.Break, *ctree.Continue, *ctree.Goto,
		*ctree.Empty, *ctree.EmptyExpr, *ctree.Asm, *ctree.Return:
		return ctree.ActionSkipChildren
	}

	if p.marks[it] {
		return ctree.ActionContinue
	}

	// Only statements are pruning targets; a junk expression goes away
	// with its enclosing statement.
	if it.IsExpr() {
		return ctree.ActionContinue
	}

	// A junk statement. Any goto label inside it must land somewhere
	// before the subtree is removed.
	p.cleanupLabels(it)
	ctree.RemoveStmt(p.fn.Body, it)
	p.pruned = true
	return ctree.ActionStop
}

// cleanupLabels relocates every goto label carried by the doomed statement
// or its descendants, one label per scan, until none remain.
func (p *pruner) cleanupLabels(doomed ctree.Item) {
	for {
		lab := findLabeled(doomed)
		if lab == nil {
			return
		}
		p.relocateLabel(lab)
	}
}

// relocateLabel moves the label off an item inside a doomed subtree.
// The new carrier is the nearest statement after the labeled item, at
// sibling level in the closest enclosing block; label ordering must track
// the forward position from which control resumes. If the carrier already
// has a label the gotos are redirected to it instead, and if no enclosing
// block exists at all the gotos become returns.
func (p *pruner) relocateLabel(lab ctree.Item) {
	oldLabel := lab.Info().Label

	var dest ctree.Item
	parent := lab
	for dest == nil {
		// climb to the nearest enclosing block
		for {
			parent = ctree.FindParentOf(p.fn.Body, parent)
			if parent == nil {
				break
			}
			if _, ok := parent.(*ctree.Block); ok {
				break
			}
		}
		if parent == nil {
			// Nowhere to put the label: rewrite every goto that targets
			// it into a plain return.
			p.rewriteGotos(oldLabel, toReturn)
			lab.Info().Label = ctree.NoLabel
			return
		}

		for _, kid := range p.childrenOf(parent) {
			if kid.Info().Ea <= lab.Info().Ea {
				continue
			}
			if dest == nil || kid.Info().Ea < dest.Info().Ea {
				dest = kid
			}
		}
	}

	if dest.Info().Label != ctree.NoLabel {
		// the carrier is already a target; merge the labels
		p.rewriteGotos(oldLabel, dest.Info().Label)
		lab.Info().Label = ctree.NoLabel
		return
	}

	dest.Info().Label = oldLabel
	lab.Info().Label = ctree.NoLabel
}

// findLabeled returns the first item in the subtree that carries a goto
// label, or nil if none does.
func findLabeled(root ctree.Item) ctree.Item {
	v := &labelScanVisitor{}
	ctree.Walk(root, v)
	return v.found
}

// labelScanVisitor is the pruner's label-hunting traversal mode
type labelScanVisitor struct {
	found ctree.Item
}

func (v *labelScanVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	if it.Info().Label == ctree.NoLabel {
		return ctree.ActionContinue
	}
	v.found = it
	return ctree.ActionStop
}

// childrenOf collects the direct children of the given parent anywhere in
// the function body.
func (p *pruner) childrenOf(parent ctree.Item) []ctree.Item {
	v := &childCollectVisitor{parent: parent}
	ctree.Walk(parent, v)
	return v.children
}

// childCollectVisitor is the pruner's sibling-collection traversal mode
type childCollectVisitor struct {
	parent   ctree.Item
	children []ctree.Item
}

func (v *childCollectVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	if len(parents) > 0 && parents[len(parents)-1] == v.parent {
		v.children = append(v.children, it)
	}
	return ctree.ActionContinue
}

// rewriteGotos retargets every goto in the function that jumps to oldLabel.
// With newLabel == toReturn the goto is replaced in place by a return
// statement carrying the goto's address and label.
func (p *pruner) rewriteGotos(oldLabel, newLabel int) {
	ctree.Walk(p.fn.Body, &gotoRewriteVisitor{p: p, oldLabel: oldLabel, newLabel: newLabel})
}

// gotoRewriteVisitor is the pruner's goto-retargeting traversal mode
type gotoRewriteVisitor struct {
	p        *pruner
	oldLabel int
	newLabel int
}

func (v *gotoRewriteVisitor) Visit(it ctree.Item, parents []ctree.Item) ctree.Action {
	g, ok := it.(*ctree.Goto)
	if !ok || g.Target != v.oldLabel {
		return ctree.ActionContinue
	}
	if v.newLabel != toReturn {
		g.Target = v.newLabel
		return ctree.ActionContinue
	}
	ret := ctree.NewReturn(g.Ea, g.Label)
	if parent := ctree.FindParentOf(v.p.fn.Body, g); parent != nil {
		ctree.ReplaceChild(parent, g, ret)
	}
	return ctree.ActionContinue
}
