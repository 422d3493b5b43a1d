package ctree

import (
	"strings"
	"testing"

	"github.com/pcode-tools/detox/pkg/ptypes"
)

func printFixture(t *testing.T, fn *Function) string {
	t.Helper()
	var b strings.Builder
	NewPrinter(&b).PrintFunction(fn)
	return b.String()
}

func TestPrintFunctionSignatureAndDecls(t *testing.T) {
	fn := &Function{
		Name:   "sub_401000",
		Return: ptypes.Int(),
		Lvars: []Lvar{
			{Name: "a1", Typ: ptypes.Int(), IsArg: true, Used: true},
			{Name: "a2", Typ: ptypes.Tptr{Elem: ptypes.Tint{Size: ptypes.I8}}, IsArg: true, Used: true},
			{Name: "v1", Typ: ptypes.Int(), Used: true},
			{Name: "v2", Typ: ptypes.Int(), Used: false},
		},
		Body: &Block{ItemInfo: At(0), Stmts: []Item{
			&Return{ItemInfo: At(0x10), Value: &VarRef{ItemInfo: At(0x10), Index: 2, Typ: ptypes.Int()}},
		}},
	}

	got := printFixture(t, fn)
	if !strings.Contains(got, "int sub_401000(int a1, char *a2)") {
		t.Errorf("signature missing from output:\n%s", got)
	}
	if !strings.Contains(got, "  int v1;\n") {
		t.Errorf("used local v1 should be declared:\n%s", got)
	}
	if strings.Contains(got, "v2") {
		t.Errorf("unused local v2 should not appear:\n%s", got)
	}
	if !strings.Contains(got, "  return v1;\n") {
		t.Errorf("return statement missing:\n%s", got)
	}
}

func TestPrintLabelFlushLeft(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{ItemInfo: At(0), Stmts: []Item{
			&Goto{ItemInfo: At(0x10), Target: 2},
			&Return{ItemInfo: LabelAt(0x20, 2)},
		}},
	}

	got := printFixture(t, fn)
	if !strings.Contains(got, "\nLABEL_2:\n") {
		t.Errorf("label should print flush-left on its own line:\n%s", got)
	}
	if !strings.Contains(got, "goto LABEL_2;") {
		t.Errorf("goto missing:\n%s", got)
	}
}

func TestPrintSuppressesTrailingBareReturn(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{ItemInfo: At(0), Stmts: []Item{
			&Return{ItemInfo: At(0x10)},
		}},
	}

	got := printFixture(t, fn)
	if strings.Contains(got, "return") {
		t.Errorf("trailing bare return should be suppressed:\n%s", got)
	}

	// labeled or value-carrying returns still print
	fn.Body.Stmts = []Item{&Return{ItemInfo: LabelAt(0x10, 1)}}
	if got := printFixture(t, fn); !strings.Contains(got, "return;") {
		t.Errorf("labeled return must not be suppressed:\n%s", got)
	}
}

func TestPrintControlStatements(t *testing.T) {
	x := &VarRef{ItemInfo: At(0x10), Index: 0, Typ: ptypes.Int()}
	fn := &Function{
		Name:  "f",
		Lvars: []Lvar{{Name: "i", Typ: ptypes.Int(), Used: true}},
		Body: &Block{ItemInfo: At(0), Stmts: []Item{
			&While{
				ItemInfo: At(0x10),
				Cond:     x,
				Body: &Block{ItemInfo: At(0x12), Stmts: []Item{
					&Break{ItemInfo: At(0x14)},
				}},
			},
			&DoWhile{
				ItemInfo: At(0x20),
				Body:     &Block{ItemInfo: At(0x22), Stmts: []Item{&Continue{ItemInfo: At(0x24)}}},
				Cond:     &Num{ItemInfo: At(0x26), Value: 0},
			},
			&Asm{ItemInfo: At(0x30), Text: "cpuid"},
		}},
	}

	got := printFixture(t, fn)
	for _, want := range []string{
		"while ( i )",
		"break;",
		"do\n",
		"while ( 0 );",
		"continue;",
		"__asm { cpuid }",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		it   Item
		want string
	}{
		{"num", &Num{Value: 42}, "42"},
		{"var", &VarRef{Index: 3}, "v3"},
		{"obj", &ObjRef{Name: "dword_403000"}, "dword_403000"},
		{"unary", &Unary{Op: "-", X: &Num{Value: 1}}, "-1"},
		{"binary", &Binary{Op: "+", Left: &VarRef{Index: 0}, Right: &Num{Value: 2}}, "v0 + 2"},
		{"cast", &Cast{Typ: ptypes.Int(), X: &VarRef{Index: 1}}, "(int)v1"},
		{"call", &Call{
			Callee: &Helper{Name: "LOBYTE"},
			Args:   []Item{&VarRef{Index: 0}},
		}, "LOBYTE(v0)"},
	}
	for _, c := range cases {
		got, err := ExprString(c.it)
		if err != nil {
			t.Errorf("%s: ExprString error: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: ExprString = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestExprStringErrors(t *testing.T) {
	for _, it := range []Item{
		nil,
		&ObjRef{},
		&Helper{},
		&Return{},
		&Call{Callee: &Helper{}},
	} {
		if _, err := ExprString(it); err == nil {
			t.Errorf("ExprString(%T) should fail", it)
		}
	}
}

func TestStripTags(t *testing.T) {
	cases := []struct{ in, want string }{
		{"LOBYTE", "LOBYTE"},
		{"\x01(LOBYTE\x02(", "LOBYTE"},
		{"\x01\x14__ROL4__\x02\x14", "__ROL4__"},
		{"", ""},
		{"\x01", ""},
	}
	for _, c := range cases {
		if got := StripTags(c.in); got != c.want {
			t.Errorf("StripTags(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
