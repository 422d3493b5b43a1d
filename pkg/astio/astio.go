// Package astio reads and writes decompiled function trees as YAML
// documents. The format exists so that trees captured from a decompiler
// can be replayed through the detox pass from the command line and from
// test fixtures; it is not a wire protocol.
package astio

import (
	"fmt"

	"github.com/pcode-tools/detox/pkg/ctree"
	"github.com/pcode-tools/detox/pkg/ptypes"
	"gopkg.in/yaml.v3"
)

// fileSpec is the top-level YAML document
type fileSpec struct {
	Function funcSpec `yaml:"function"`
}

type funcSpec struct {
	Name    string     `yaml:"name"`
	Returns string     `yaml:"returns,omitempty"`
	Lvars   []lvarSpec `yaml:"lvars,omitempty"`
	Body    *itemSpec  `yaml:"body"`
}

type lvarSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Arg  bool   `yaml:"arg,omitempty"`
	Used *bool  `yaml:"used,omitempty"` // defaults to true
}

// itemSpec describes one tree item. Kind selects which of the remaining
// fields apply.
type itemSpec struct {
	Kind  string `yaml:"kind"`
	Ea    uint64 `yaml:"ea,omitempty"`
	Label *int   `yaml:"label,omitempty"`

	Stmts  []*itemSpec `yaml:"stmts,omitempty"`  // block
	Cond   *itemSpec   `yaml:"cond,omitempty"`   // if/for/while/do
	Then   *itemSpec   `yaml:"then,omitempty"`   // if
	Else   *itemSpec   `yaml:"else,omitempty"`   // if
	Init   *itemSpec   `yaml:"init,omitempty"`   // for
	Step   *itemSpec   `yaml:"step,omitempty"`   // for
	Body   *itemSpec   `yaml:"body,omitempty"`   // for/while/do
	Value  *itemSpec   `yaml:"value,omitempty"`  // return
	Target int         `yaml:"target,omitempty"` // goto
	X      *itemSpec   `yaml:"x,omitempty"`      // expr statement, unary, cast
	Callee *itemSpec   `yaml:"callee,omitempty"` // call
	Args   []*itemSpec `yaml:"args,omitempty"`   // call
	Name   string      `yaml:"name,omitempty"`   // helper, obj
	Var    string      `yaml:"var,omitempty"`    // var reference, by lvar name
	Op     string      `yaml:"op,omitempty"`     // unary, binary
	Left   *itemSpec   `yaml:"left,omitempty"`   // binary
	Right  *itemSpec   `yaml:"right,omitempty"`  // binary
	N      int64       `yaml:"n,omitempty"`      // num
	Type   string      `yaml:"type,omitempty"`   // cast
	Text   string      `yaml:"text,omitempty"`   // asm
}

// Load decodes a YAML function document into a tree
func Load(data []byte) (*ctree.Function, error) {
	var file fileSpec
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("astio: %w", err)
	}
	return build(&file.Function)
}

func build(spec *funcSpec) (*ctree.Function, error) {
	if spec.Body == nil {
		return nil, fmt.Errorf("astio: function %q has no body", spec.Name)
	}

	fn := &ctree.Function{Name: spec.Name}

	ret := spec.Returns
	if ret == "" {
		ret = "void"
	}
	typ, err := ptypes.Parse(ret)
	if err != nil {
		return nil, fmt.Errorf("astio: function %q: %w", spec.Name, err)
	}
	fn.Return = typ

	slots := make(map[string]int, len(spec.Lvars))
	for i, lv := range spec.Lvars {
		if lv.Name == "" {
			return nil, fmt.Errorf("astio: function %q: lvar %d has no name", spec.Name, i)
		}
		if _, dup := slots[lv.Name]; dup {
			return nil, fmt.Errorf("astio: function %q: duplicate lvar %q", spec.Name, lv.Name)
		}
		typ, err := ptypes.Parse(lv.Type)
		if err != nil {
			return nil, fmt.Errorf("astio: lvar %q: %w", lv.Name, err)
		}
		used := true
		if lv.Used != nil {
			used = *lv.Used
		}
		slots[lv.Name] = i
		fn.Lvars = append(fn.Lvars, ctree.Lvar{
			Name:  lv.Name,
			Typ:   typ,
			IsArg: lv.Arg,
			Used:  used,
		})
	}

	b := &builder{fn: fn, slots: slots}
	body, err := b.item(spec.Body)
	if err != nil {
		return nil, err
	}
	block, ok := body.(*ctree.Block)
	if !ok {
		return nil, fmt.Errorf("astio: function %q: body must be a block, got %q", spec.Name, spec.Body.Kind)
	}
	fn.Body = block
	return fn, nil
}

type builder struct {
	fn    *ctree.Function
	slots map[string]int
}

func (b *builder) info(spec *itemSpec) ctree.ItemInfo {
	label := ctree.NoLabel
	if spec.Label != nil {
		label = *spec.Label
	}
	return ctree.ItemInfo{Ea: spec.Ea, Label: label}
}

func (b *builder) item(spec *itemSpec) (ctree.Item, error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Kind {
	case "block":
		blk := &ctree.Block{ItemInfo: b.info(spec)}
		for _, s := range spec.Stmts {
			kid, err := b.item(s)
			if err != nil {
				return nil, err
			}
			blk.Stmts = append(blk.Stmts, kid)
		}
		return blk, nil
	case "if":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.If{ItemInfo: b.info(spec), Cond: items[0], Then: items[1], Else: items[2]}
		}, spec.Cond, spec.Then, spec.Else)
	case "for":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.For{ItemInfo: b.info(spec), Init: items[0], Cond: items[1], Step: items[2], Body: items[3]}
		}, spec.Init, spec.Cond, spec.Step, spec.Body)
	case "while":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.While{ItemInfo: b.info(spec), Cond: items[0], Body: items[1]}
		}, spec.Cond, spec.Body)
	case "do":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.DoWhile{ItemInfo: b.info(spec), Body: items[0], Cond: items[1]}
		}, spec.Body, spec.Cond)
	case "return":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.Return{ItemInfo: b.info(spec), Value: items[0]}
		}, spec.Value)
	case "goto":
		return &ctree.Goto{ItemInfo: b.info(spec), Target: spec.Target}, nil
	case "break":
		return &ctree.Break{ItemInfo: b.info(spec)}, nil
	case "continue":
		return &ctree.Continue{ItemInfo: b.info(spec)}, nil
	case "expr":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.ExprStmt{ItemInfo: b.info(spec), X: items[0]}
		}, spec.X)
	case "empty":
		return &ctree.Empty{ItemInfo: b.info(spec)}, nil
	case "asm":
		return &ctree.Asm{ItemInfo: b.info(spec), Text: spec.Text}, nil
	case "call":
		callee, err := b.item(spec.Callee)
		if err != nil {
			return nil, err
		}
		call := &ctree.Call{ItemInfo: b.info(spec), Callee: callee}
		for _, a := range spec.Args {
			arg, err := b.item(a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	case "helper":
		return &ctree.Helper{ItemInfo: b.info(spec), Name: spec.Name}, nil
	case "var":
		idx, ok := b.slots[spec.Var]
		if !ok {
			return nil, fmt.Errorf("astio: reference to unknown lvar %q", spec.Var)
		}
		return &ctree.VarRef{ItemInfo: b.info(spec), Index: idx, Typ: b.fn.Lvars[idx].Typ}, nil
	case "obj":
		return &ctree.ObjRef{ItemInfo: b.info(spec), Name: spec.Name}, nil
	case "emptyexpr":
		return &ctree.EmptyExpr{ItemInfo: b.info(spec)}, nil
	case "num":
		return &ctree.Num{ItemInfo: b.info(spec), Value: spec.N}, nil
	case "unary":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.Unary{ItemInfo: b.info(spec), Op: spec.Op, X: items[0]}
		}, spec.X)
	case "binary":
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.Binary{ItemInfo: b.info(spec), Op: spec.Op, Left: items[0], Right: items[1]}
		}, spec.Left, spec.Right)
	case "cast":
		typ, err := ptypes.Parse(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("astio: cast: %w", err)
		}
		return b.compound(func(items []ctree.Item) ctree.Item {
			return &ctree.Cast{ItemInfo: b.info(spec), Typ: typ, X: items[0]}
		}, spec.X)
	case "":
		return nil, fmt.Errorf("astio: item is missing a kind")
	}
	return nil, fmt.Errorf("astio: unknown item kind %q", spec.Kind)
}

// compound builds the child items then assembles the node, so child errors
// surface before construction
func (b *builder) compound(assemble func([]ctree.Item) ctree.Item, children ...*itemSpec) (ctree.Item, error) {
	items := make([]ctree.Item, len(children))
	for i, c := range children {
		kid, err := b.item(c)
		if err != nil {
			return nil, err
		}
		items[i] = kid
	}
	return assemble(items), nil
}
