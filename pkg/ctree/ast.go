// Package ctree defines the decompiled-function statement tree.
// The tree mirrors what a decompiler emits for one function at its final
// maturity: statements and expressions tagged with a source address and an
// optional goto-label number. Nodes hold children only; a node's parent is
// recomputed by searching from the root, so parent links can never go stale
// across mutations.
package ctree

import "github.com/pcode-tools/detox/pkg/ptypes"

// NoLabel marks an item that is not a goto target
const NoLabel = -1

// ItemInfo holds the fields shared by every tree item
type ItemInfo struct {
	Ea    uint64 // source address the item was decompiled from
	Label int    // goto-label number, NoLabel if none
}

// At builds an unlabeled ItemInfo for the given address
func At(ea uint64) ItemInfo {
	return ItemInfo{Ea: ea, Label: NoLabel}
}

// LabelAt builds an ItemInfo carrying a goto-label number
func LabelAt(ea uint64, label int) ItemInfo {
	return ItemInfo{Ea: ea, Label: label}
}

// Item is the interface for all tree items. Concrete items are pointer
// types, so item identity is pointer identity (usable as map keys).
type Item interface {
	Info() *ItemInfo
	Children() []Item
	IsExpr() bool
}

// --- Statements ---

// Block holds an ordered sequence of statements
type Block struct {
	ItemInfo
	Stmts []Item
}

// If represents an if statement, Else may be nil
type If struct {
	ItemInfo
	Cond Item
	Then Item
	Else Item
}

// For represents a for loop; Init, Cond and Step may be nil
type For struct {
	ItemInfo
	Init Item
	Cond Item
	Step Item
	Body Item
}

// While represents a while loop
type While struct {
	ItemInfo
	Cond Item
	Body Item
}

// DoWhile represents a do-while loop
type DoWhile struct {
	ItemInfo
	Body Item
	Cond Item
}

// Return represents a return statement, Value may be nil
type Return struct {
	ItemInfo
	Value Item
}

// Goto represents a jump to a labeled item
type Goto struct {
	ItemInfo
	Target int // label number of the destination
}

// Break represents breaking out of a loop
type Break struct {
	ItemInfo
}

// Continue represents continuing to the next iteration
type Continue struct {
	ItemInfo
}

// ExprStmt represents an expression evaluated as a statement
type ExprStmt struct {
	ItemInfo
	X Item
}

// Empty represents an empty statement
type Empty struct {
	ItemInfo
}

// Asm represents inline assembly the decompiler could not lift
type Asm struct {
	ItemInfo
	Text string
}

// --- Expressions ---

// Call represents a function call
type Call struct {
	ItemInfo
	Callee Item
	Args   []Item
}

// Helper represents a named intrinsic standing in for an operation the
// decompiler renders as a macro (LOBYTE, __ROL4__, __readfsdword, ...).
// The name may carry inline display tags.
type Helper struct {
	ItemInfo
	Name string
}

// VarRef references a function-local variable by its slot index
type VarRef struct {
	ItemInfo
	Index int
	Typ   ptypes.Type
}

// ObjRef references a global variable or other named object
type ObjRef struct {
	ItemInfo
	Name string
}

// EmptyExpr represents an empty expression
type EmptyExpr struct {
	ItemInfo
}

// Num represents a numeric constant
type Num struct {
	ItemInfo
	Value int64
}

// Unary represents a unary operation
type Unary struct {
	ItemInfo
	Op string
	X  Item
}

// Binary represents a binary operation (assignment included)
type Binary struct {
	ItemInfo
	Op    string
	Left  Item
	Right Item
}

// Cast represents a type conversion
type Cast struct {
	ItemInfo
	Typ ptypes.Type
	X   Item
}

// --- Functions and variables ---

// Lvar is one slot in a function's local-variable list.
// IsArg is set by the decompiler and immutable; Used is the display flag
// cleared when a variable turns out to be junk.
type Lvar struct {
	Name  string
	Typ   ptypes.Type
	IsArg bool
	Used  bool
}

// Function is one decompiled function: its variable list and body tree.
// The variable list order is stable; VarRef items index into it.
type Function struct {
	Name   string
	Return ptypes.Type
	Lvars  []Lvar
	Body   *Block
}

// --- Item interface implementations ---

func (b *Block) Info() *ItemInfo    { return &b.ItemInfo }
func (s *If) Info() *ItemInfo       { return &s.ItemInfo }
func (s *For) Info() *ItemInfo      { return &s.ItemInfo }
func (s *While) Info() *ItemInfo    { return &s.ItemInfo }
func (s *DoWhile) Info() *ItemInfo  { return &s.ItemInfo }
func (s *Return) Info() *ItemInfo   { return &s.ItemInfo }
func (s *Goto) Info() *ItemInfo     { return &s.ItemInfo }
func (s *Break) Info() *ItemInfo    { return &s.ItemInfo }
func (s *Continue) Info() *ItemInfo { return &s.ItemInfo }
func (s *ExprStmt) Info() *ItemInfo { return &s.ItemInfo }
func (s *Empty) Info() *ItemInfo    { return &s.ItemInfo }
func (s *Asm) Info() *ItemInfo      { return &s.ItemInfo }

func (e *Call) Info() *ItemInfo      { return &e.ItemInfo }
func (e *Helper) Info() *ItemInfo    { return &e.ItemInfo }
func (e *VarRef) Info() *ItemInfo    { return &e.ItemInfo }
func (e *ObjRef) Info() *ItemInfo    { return &e.ItemInfo }
func (e *EmptyExpr) Info() *ItemInfo { return &e.ItemInfo }
func (e *Num) Info() *ItemInfo       { return &e.ItemInfo }
func (e *Unary) Info() *ItemInfo     { return &e.ItemInfo }
func (e *Binary) Info() *ItemInfo    { return &e.ItemInfo }
func (e *Cast) Info() *ItemInfo      { return &e.ItemInfo }

func (*Block) IsExpr() bool    { return false }
func (*If) IsExpr() bool       { return false }
func (*For) IsExpr() bool      { return false }
func (*While) IsExpr() bool    { return false }
func (*DoWhile) IsExpr() bool  { return false }
func (*Return) IsExpr() bool   { return false }
func (*Goto) IsExpr() bool     { return false }
func (*Break) IsExpr() bool    { return false }
func (*Continue) IsExpr() bool { return false }
func (*ExprStmt) IsExpr() bool { return false }
func (*Empty) IsExpr() bool    { return false }
func (*Asm) IsExpr() bool      { return false }

func (*Call) IsExpr() bool      { return true }
func (*Helper) IsExpr() bool    { return true }
func (*VarRef) IsExpr() bool    { return true }
func (*ObjRef) IsExpr() bool    { return true }
func (*EmptyExpr) IsExpr() bool { return true }
func (*Num) IsExpr() bool       { return true }
func (*Unary) IsExpr() bool     { return true }
func (*Binary) IsExpr() bool    { return true }
func (*Cast) IsExpr() bool      { return true }

// kids filters out nil children, preserving order
func kids(items ...Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func (b *Block) Children() []Item { return b.Stmts }
func (s *If) Children() []Item    { return kids(s.Cond, s.Then, s.Else) }
func (s *For) Children() []Item {
	return kids(s.Init, s.Cond, s.Step, s.Body)
}
func (s *While) Children() []Item    { return kids(s.Cond, s.Body) }
func (s *DoWhile) Children() []Item  { return kids(s.Body, s.Cond) }
func (s *Return) Children() []Item   { return kids(s.Value) }
func (s *Goto) Children() []Item     { return nil }
func (s *Break) Children() []Item    { return nil }
func (s *Continue) Children() []Item { return nil }
func (s *ExprStmt) Children() []Item { return kids(s.X) }
func (s *Empty) Children() []Item    { return nil }
func (s *Asm) Children() []Item      { return nil }

func (e *Call) Children() []Item {
	return append(kids(e.Callee), e.Args...)
}
func (e *Helper) Children() []Item    { return nil }
func (e *VarRef) Children() []Item    { return nil }
func (e *ObjRef) Children() []Item    { return nil }
func (e *EmptyExpr) Children() []Item { return nil }
func (e *Num) Children() []Item       { return nil }
func (e *Unary) Children() []Item     { return kids(e.X) }
func (e *Binary) Children() []Item    { return kids(e.Left, e.Right) }
func (e *Cast) Children() []Item      { return kids(e.X) }

// NewReturn constructs a bare return statement carrying the given address
// and label number (used when a goto is rewritten into a return).
func NewReturn(ea uint64, label int) *Return {
	return &Return{ItemInfo: ItemInfo{Ea: ea, Label: label}}
}

// Count returns the number of items in the subtree rooted at it
func Count(it Item) int {
	if it == nil {
		return 0
	}
	n := 1
	for _, kid := range it.Children() {
		n += Count(kid)
	}
	return n
}
