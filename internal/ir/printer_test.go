package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintModule(t *testing.T) {
	m := lower(t, `
int counter = 3;
const int table[3] = {1, 2};
int main() {
    printf("hi\n");
    return counter;
}
`)
	out := Print(m)

	assert.True(t, strings.HasPrefix(out, "declare i32 @getint()\n"))
	assert.Contains(t, out, "declare void @putint(i32)\n")
	assert.Contains(t, out, "declare void @putch(i32)\n")
	assert.Contains(t, out, "declare void @putstr(i8*)\n")

	assert.Contains(t, out, "@counter = dso_local global i32 3, align 4")
	assert.Contains(t, out, "@table = dso_local constant [3 x i32] [i32 1, i32 2, i32 0], align 4")
	assert.Contains(t, out, `@.str_0 = private unnamed_addr constant [4 x i8] c"hi\0A\00", align 1`)

	assert.Contains(t, out, "define dso_local i32 @main() {\nentry:\n")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestPrintFunction(t *testing.T) {
	fn, entry := newTestFunction(2)
	sum := entry.Append(fn.NewBinary(OpAdd, fn.Params[0], fn.Params[1]))
	entry.Append(fn.NewRet(sum.Result()))

	want := strings.Join([]string{
		"define dso_local i32 @f(i32 %arg0, i32 %arg1) {",
		"entry:",
		"  %t0 = add i32 %arg0, %arg1",
		"  ret i32 %t0",
		"}",
		"",
	}, "\n")
	assert.Equal(t, want, PrintFunction(fn))
	assert.Equal(t, want, fn.String())
}

func TestPrintReflectsRewrites(t *testing.T) {
	fn, entry := newTestFunction(1)
	sum := entry.Append(fn.NewBinary(OpAdd, fn.Params[0], NewConstant(0, 32)))
	entry.Append(fn.NewRet(sum.Result()))

	m := moduleOf(fn)
	require.True(t, (&AlgebraicSimplification{}).Apply(m))

	out := Print(m)
	assert.NotContains(t, out, "add")
	assert.Contains(t, out, "ret i32 %arg0")
}

func TestEscapeBytes(t *testing.T) {
	assert.Equal(t, `a b`, escapeBytes("a b"))
	assert.Equal(t, `line\0A`, escapeBytes("line\n"))
	assert.Equal(t, `say \22hi\22`, escapeBytes(`say "hi"`))
	assert.Equal(t, `back\5Cslash`, escapeBytes(`back\slash`))
}
