// Call classification: genuine calls versus trivial intrinsic macros.
package detox

import "github.com/pcode-tools/detox/pkg/ctree"

// nonLegitHelperNames lists the decompiler's trivial bit-extraction and
// flag-arithmetic macros. A call to one of these is not inherently
// legitimate; it only survives if one of its arguments is. This is a
// name match, so a real function that happens to share a name with one
// of these macros is misclassified. That blind spot is accepted.
var nonLegitHelperNames = []string{
	"__ROL__",
	"__ROL1__",
	"__ROL2__",
	"__ROL4__",
	"__ROL8__",
	"__ROR1__",
	"__ROR2__",
	"__ROR4__",
	"__ROR8__",
	"LOBYTE",
	"LOWORD",
	"LODWORD",
	"HIBYTE",
	"HIWORD",
	"HIDWORD",
	"BYTEn",
	"WORDn",
	"BYTE1",
	"BYTE2",
	"BYTE3",
	"BYTE4",
	"BYTE5",
	"BYTE6",
	"BYTE7",
	"BYTE8",
	"BYTE9",
	"BYTE10",
	"BYTE11",
	"BYTE12",
	"BYTE13",
	"BYTE14",
	"BYTE15",
	"WORD1",
	"WORD2",
	"WORD3",
	"WORD4",
	"WORD5",
	"WORD6",
	"WORD7",
	"SLOBYTE",
	"SLOWORD",
	"SLODWORD",
	"SHIBYTE",
	"SHIWORD",
	"SHIDWORD",
	"SBYTEn",
	"SWORDn",
	"SBYTE1",
	"SBYTE2",
	"SBYTE3",
	"SBYTE4",
	"SBYTE5",
	"SBYTE6",
	"SBYTE7",
	"SBYTE8",
	"SBYTE9",
	"SBYTE10",
	"SBYTE11",
	"SBYTE12",
	"SBYTE13",
	"SBYTE14",
	"SBYTE15",
	"SWORD1",
	"SWORD2",
	"SWORD3",
	"SWORD4",
	"SWORD5",
	"SWORD6",
	"SWORD7",
	"__CFSHL__",
	"__CFSHR__",
	"__CFADD__",
	"__CFSUB__",
	"__OFADD__",
	"__OFSUB__",
	"__RCL__",
	"__RCR__",
	"__MKCRCL__",
	"__MKCRCR__",
	"__SETP__",
	"__MKCSHL__",
	"__MKCSHR__",
	"__SETS__",
	"__ROR__",
}

var nonLegitHelpers = make(map[string]bool, len(nonLegitHelperNames))

func init() {
	for _, name := range nonLegitHelperNames {
		nonLegitHelpers[name] = true
	}
}

// isLegitimateCall reports whether a call expression represents a genuine
// function call. A call through anything other than a named helper is
// genuine. A helper call is genuine unless its rendered, tag-stripped name
// is on the trivial-macro list; named intrinsics like __readfsdword pass.
// If the helper's name cannot be rendered, the call is conservatively
// classified as not legitimate.
func isLegitimateCall(call *ctree.Call) bool {
	helper, ok := call.Callee.(*ctree.Helper)
	if !ok {
		return true
	}
	name, err := ctree.ExprString(helper)
	if err != nil {
		return false
	}
	return !nonLegitHelpers[ctree.StripTags(name)]
}
