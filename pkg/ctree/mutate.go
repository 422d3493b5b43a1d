// Structural mutation primitives.
// These are the only ways the tree changes shape. Every mutation keeps the
// tree balanced: a block child is erased from the sequence, while a child
// slot of a compound statement is backfilled with an empty statement.
package ctree

// EraseFromBlock removes child from the block's statement sequence.
// Returns false if child is not a direct member of the block.
func EraseFromBlock(b *Block, child Item) bool {
	for i, s := range b.Stmts {
		if s == child {
			b.Stmts = append(b.Stmts[:i], b.Stmts[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceChild swaps old for repl in parent's child slots.
// Returns false if old is not a direct child of parent.
func ReplaceChild(parent, old, repl Item) bool {
	switch p := parent.(type) {
	case *Block:
		for i, s := range p.Stmts {
			if s == old {
				p.Stmts[i] = repl
				return true
			}
		}
	case *If:
		switch old {
		case p.Cond:
			p.Cond = repl
		case p.Then:
			p.Then = repl
		case p.Else:
			p.Else = repl
		default:
			return false
		}
		return true
	case *For:
		switch old {
		case p.Init:
			p.Init = repl
		case p.Cond:
			p.Cond = repl
		case p.Step:
			p.Step = repl
		case p.Body:
			p.Body = repl
		default:
			return false
		}
		return true
	case *While:
		switch old {
		case p.Cond:
			p.Cond = repl
		case p.Body:
			p.Body = repl
		default:
			return false
		}
		return true
	case *DoWhile:
		switch old {
		case p.Body:
			p.Body = repl
		case p.Cond:
			p.Cond = repl
		default:
			return false
		}
		return true
	case *Return:
		if p.Value == old {
			p.Value = repl
			return true
		}
	case *ExprStmt:
		if p.X == old {
			p.X = repl
			return true
		}
	case *Call:
		if p.Callee == old {
			p.Callee = repl
			return true
		}
		for i, a := range p.Args {
			if a == old {
				p.Args[i] = repl
				return true
			}
		}
	case *Unary:
		if p.X == old {
			p.X = repl
			return true
		}
	case *Binary:
		switch old {
		case p.Left:
			p.Left = repl
		case p.Right:
			p.Right = repl
		default:
			return false
		}
		return true
	case *Cast:
		if p.X == old {
			p.X = repl
			return true
		}
	}
	return false
}

// RemoveStmt detaches it from its parent within the tree rooted at root.
// Block children are erased outright; any other parent slot is backfilled
// with an empty statement so the parent stays well-formed. Returns false
// if it has no parent in the tree.
func RemoveStmt(root, it Item) bool {
	parent := FindParentOf(root, it)
	if parent == nil {
		return false
	}
	if b, ok := parent.(*Block); ok {
		return EraseFromBlock(b, it)
	}
	return ReplaceChild(parent, it, &Empty{ItemInfo: At(it.Info().Ea)})
}
