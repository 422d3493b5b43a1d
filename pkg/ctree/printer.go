// Pseudocode printing for decompiled function trees.
// Output follows the decompiler's display conventions: goto labels print
// flush-left as LABEL_n, and a bare return at the end of the function body
// is suppressed.
package ctree

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs a function tree as C-like pseudocode
type Printer struct {
	w      io.Writer
	indent int
	fn     *Function
}

// NewPrinter creates a pseudocode printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintFunction prints a complete function: signature, declarations, body
func (p *Printer) PrintFunction(fn *Function) {
	p.fn = fn
	ret := "void"
	if fn.Return != nil {
		ret = fn.Return.String()
	}
	fmt.Fprintf(p.w, "%s %s(", ret, fn.Name)
	first := true
	for _, v := range fn.Lvars {
		if !v.IsArg {
			continue
		}
		if !first {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, declString(v))
		first = false
	}
	fmt.Fprintln(p.w, ")")
	fmt.Fprintln(p.w, "{")
	p.indent++

	declared := false
	for _, v := range fn.Lvars {
		if v.IsArg || !v.Used {
			continue
		}
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", declString(v))
		declared = true
	}
	if declared {
		fmt.Fprintln(p.w)
	}

	if fn.Body != nil {
		for _, s := range trimTrailingReturn(fn.Body.Stmts) {
			p.printStmt(s)
		}
	}

	p.indent--
	fmt.Fprintln(p.w, "}")
}

// declString renders a variable declaration; pointer types bind the star
// to the name the way the decompiler displays them ("char *a2").
func declString(v Lvar) string {
	ts := v.Typ.String()
	if strings.HasSuffix(ts, "*") {
		return ts + v.Name
	}
	return ts + " " + v.Name
}

// trimTrailingReturn drops a final bare unlabeled return from the top-level
// statement list; the decompiler does not display it.
func trimTrailingReturn(stmts []Item) []Item {
	if n := len(stmts); n > 0 {
		if r, ok := stmts[n-1].(*Return); ok && r.Value == nil && r.Label == NoLabel {
			return stmts[:n-1]
		}
	}
	return stmts
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printStmt(it Item) {
	if it == nil {
		return
	}
	if lbl := it.Info().Label; lbl != NoLabel {
		fmt.Fprintf(p.w, "LABEL_%d:\n", lbl)
	}
	switch s := it.(type) {
	case *Block:
		p.writeIndent()
		fmt.Fprintln(p.w, "{")
		p.indent++
		for _, kid := range s.Stmts {
			p.printStmt(kid)
		}
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, "}")
	case *If:
		p.writeIndent()
		fmt.Fprintf(p.w, "if ( %s )\n", p.exprString(s.Cond))
		p.printBody(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printBody(s.Else)
		}
	case *For:
		p.writeIndent()
		fmt.Fprintf(p.w, "for ( %s; %s; %s )\n",
			p.exprString(s.Init), p.exprString(s.Cond), p.exprString(s.Step))
		p.printBody(s.Body)
	case *While:
		p.writeIndent()
		fmt.Fprintf(p.w, "while ( %s )\n", p.exprString(s.Cond))
		p.printBody(s.Body)
	case *DoWhile:
		p.writeIndent()
		fmt.Fprintln(p.w, "do")
		p.printBody(s.Body)
		p.writeIndent()
		fmt.Fprintf(p.w, "while ( %s );\n", p.exprString(s.Cond))
	case *Return:
		p.writeIndent()
		if s.Value != nil {
			fmt.Fprintf(p.w, "return %s;\n", p.exprString(s.Value))
		} else {
			fmt.Fprintln(p.w, "return;")
		}
	case *Goto:
		p.writeIndent()
		fmt.Fprintf(p.w, "goto LABEL_%d;\n", s.Target)
	case *Break:
		p.writeIndent()
		fmt.Fprintln(p.w, "break;")
	case *Continue:
		p.writeIndent()
		fmt.Fprintln(p.w, "continue;")
	case *ExprStmt:
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", p.exprString(s.X))
	case *Empty:
		p.writeIndent()
		fmt.Fprintln(p.w, ";")
	case *Asm:
		p.writeIndent()
		if s.Text != "" {
			fmt.Fprintf(p.w, "__asm { %s }\n", s.Text)
		} else {
			fmt.Fprintln(p.w, "__asm { ... }")
		}
	default:
		// expression in statement position
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", p.exprString(it))
	}
}

// printBody prints a statement nested under a control header.
// Blocks print at the current level, single statements indent one step.
func (p *Printer) printBody(it Item) {
	if _, ok := it.(*Block); ok {
		p.printStmt(it)
		return
	}
	p.indent++
	p.printStmt(it)
	p.indent--
}

func (p *Printer) exprString(it Item) string {
	s, err := exprString(it, p.varName)
	if err != nil {
		return ""
	}
	return s
}

func (p *Printer) varName(idx int) string {
	if p.fn != nil && idx >= 0 && idx < len(p.fn.Lvars) && p.fn.Lvars[idx].Name != "" {
		return p.fn.Lvars[idx].Name
	}
	return fmt.Sprintf("v%d", idx)
}

// ExprString renders an expression item to its display string.
// Variable references render by slot index; rendering a nil item or a
// malformed expression fails.
func ExprString(it Item) (string, error) {
	return exprString(it, func(idx int) string {
		return fmt.Sprintf("v%d", idx)
	})
}

func exprString(it Item, varName func(int) string) (string, error) {
	switch e := it.(type) {
	case nil:
		return "", fmt.Errorf("cannot print nil expression")
	case *EmptyExpr:
		return "", nil
	case *Num:
		return fmt.Sprintf("%d", e.Value), nil
	case *VarRef:
		return varName(e.Index), nil
	case *ObjRef:
		if e.Name == "" {
			return "", fmt.Errorf("object reference has no name")
		}
		return e.Name, nil
	case *Helper:
		if e.Name == "" {
			return "", fmt.Errorf("helper has no name")
		}
		return e.Name, nil
	case *Call:
		callee, err := exprString(e.Callee, varName)
		if err != nil {
			return "", err
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			if args[i], err = exprString(a, varName); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", ")), nil
	case *Unary:
		x, err := exprString(e.X, varName)
		if err != nil {
			return "", err
		}
		return e.Op + x, nil
	case *Binary:
		l, err := exprString(e.Left, varName)
		if err != nil {
			return "", err
		}
		r, err := exprString(e.Right, varName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, e.Op, r), nil
	case *Cast:
		x, err := exprString(e.X, varName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s)%s", e.Typ.String(), x), nil
	}
	return "", fmt.Errorf("cannot print %T as an expression", it)
}

// StripTags removes inline display markup from a rendered string.
// The decompiler brackets color runs with 0x01/0x02 escapes, each followed
// by a single tag byte.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 0x01 || s[i] == 0x02 {
			i++ // skip the tag byte as well
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
