// Encoding of function trees back into the YAML document format.
package astio

import (
	"fmt"

	"github.com/pcode-tools/detox/pkg/ctree"
	"gopkg.in/yaml.v3"
)

// Dump encodes a function tree as a YAML document that Load accepts
func Dump(fn *ctree.Function) ([]byte, error) {
	if fn == nil || fn.Body == nil {
		return nil, fmt.Errorf("astio: nothing to dump")
	}

	spec := funcSpec{Name: fn.Name}
	if fn.Return != nil {
		spec.Returns = fn.Return.String()
	}
	for _, lv := range fn.Lvars {
		ls := lvarSpec{Name: lv.Name, Arg: lv.IsArg}
		if lv.Typ != nil {
			ls.Type = lv.Typ.String()
		}
		if !lv.Used {
			used := false
			ls.Used = &used
		}
		spec.Lvars = append(spec.Lvars, ls)
	}

	d := &dumper{fn: fn}
	body, err := d.item(fn.Body)
	if err != nil {
		return nil, err
	}
	spec.Body = body

	return yaml.Marshal(fileSpec{Function: spec})
}

type dumper struct {
	fn *ctree.Function
}

func (d *dumper) base(kind string, it ctree.Item) *itemSpec {
	spec := &itemSpec{Kind: kind, Ea: it.Info().Ea}
	if lbl := it.Info().Label; lbl != ctree.NoLabel {
		spec.Label = &lbl
	}
	return spec
}

func (d *dumper) item(it ctree.Item) (*itemSpec, error) {
	switch n := it.(type) {
	case nil:
		return nil, nil
	case *ctree.Block:
		spec := d.base("block", it)
		for _, s := range n.Stmts {
			kid, err := d.item(s)
			if err != nil {
				return nil, err
			}
			spec.Stmts = append(spec.Stmts, kid)
		}
		return spec, nil
	case *ctree.If:
		return d.fill(d.base("if", it), fields{cond: n.Cond, then: n.Then, els: n.Else})
	case *ctree.For:
		return d.fill(d.base("for", it), fields{init: n.Init, cond: n.Cond, step: n.Step, body: n.Body})
	case *ctree.While:
		return d.fill(d.base("while", it), fields{cond: n.Cond, body: n.Body})
	case *ctree.DoWhile:
		return d.fill(d.base("do", it), fields{body: n.Body, cond: n.Cond})
	case *ctree.Return:
		return d.fill(d.base("return", it), fields{value: n.Value})
	case *ctree.Goto:
		spec := d.base("goto", it)
		spec.Target = n.Target
		return spec, nil
	case *ctree.Break:
		return d.base("break", it), nil
	case *ctree.Continue:
		return d.base("continue", it), nil
	case *ctree.ExprStmt:
		return d.fill(d.base("expr", it), fields{x: n.X})
	case *ctree.Empty:
		return d.base("empty", it), nil
	case *ctree.Asm:
		spec := d.base("asm", it)
		spec.Text = n.Text
		return spec, nil
	case *ctree.Call:
		spec := d.base("call", it)
		callee, err := d.item(n.Callee)
		if err != nil {
			return nil, err
		}
		spec.Callee = callee
		for _, a := range n.Args {
			arg, err := d.item(a)
			if err != nil {
				return nil, err
			}
			spec.Args = append(spec.Args, arg)
		}
		return spec, nil
	case *ctree.Helper:
		spec := d.base("helper", it)
		spec.Name = n.Name
		return spec, nil
	case *ctree.VarRef:
		if n.Index < 0 || n.Index >= len(d.fn.Lvars) {
			return nil, fmt.Errorf("astio: variable reference to slot %d outside the lvar list", n.Index)
		}
		spec := d.base("var", it)
		spec.Var = d.fn.Lvars[n.Index].Name
		return spec, nil
	case *ctree.ObjRef:
		spec := d.base("obj", it)
		spec.Name = n.Name
		return spec, nil
	case *ctree.EmptyExpr:
		return d.base("emptyexpr", it), nil
	case *ctree.Num:
		spec := d.base("num", it)
		spec.N = n.Value
		return spec, nil
	case *ctree.Unary:
		spec := d.base("unary", it)
		spec.Op = n.Op
		return d.fill(spec, fields{x: n.X})
	case *ctree.Binary:
		spec := d.base("binary", it)
		spec.Op = n.Op
		return d.fill(spec, fields{left: n.Left, right: n.Right})
	case *ctree.Cast:
		spec := d.base("cast", it)
		if n.Typ != nil {
			spec.Type = n.Typ.String()
		}
		return d.fill(spec, fields{x: n.X})
	}
	return nil, fmt.Errorf("astio: cannot dump item of type %T", it)
}

// fields carries the child slots handed to fill; nil slots stay absent
type fields struct {
	cond, then, els, init, step, body, value, x, left, right ctree.Item
}

func (d *dumper) fill(spec *itemSpec, f fields) (*itemSpec, error) {
	var err error
	set := func(dst **itemSpec, src ctree.Item) {
		if err != nil || src == nil {
			return
		}
		*dst, err = d.item(src)
	}
	set(&spec.Cond, f.cond)
	set(&spec.Then, f.then)
	set(&spec.Else, f.els)
	set(&spec.Init, f.init)
	set(&spec.Step, f.step)
	set(&spec.Body, f.body)
	set(&spec.Value, f.value)
	set(&spec.X, f.x)
	set(&spec.Left, f.left)
	set(&spec.Right, f.right)
	if err != nil {
		return nil, err
	}
	return spec, nil
}
