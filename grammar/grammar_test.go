package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysyc/grammar"
)

const sample = `
// running totals
const int N = 3, M[2] = {1, 2};
int total;
static int calls = 0;

int sum(int a[], int n) {
    int i;
    int s = 0;
    for (i = 0; i < n; i = i + 1) {
        s = s + a[i];
    }
    return s;
}

void report(int v) {
    /* prints v */
    printf("v=%d\n", v);
}

int main() {
    int xs[N] = {4, 5, 6};
    int x;
    x = getint();
    if (x > 0 && !(x - 1) || x == 2) {
        total = sum(xs, N);
    } else
        total = -x;
    report(total);
    return 0;
}
`

func TestParseCompUnit(t *testing.T) {
	unit, err := grammar.ParseString("sample.sy", sample)
	require.NoError(t, err)

	require.Len(t, unit.Decls, 3)
	constDecl := unit.Decls[0].Const
	require.NotNil(t, constDecl)
	require.Len(t, constDecl.Defs, 2)
	assert.Equal(t, "N", constDecl.Defs[0].Name)
	assert.Equal(t, "M", constDecl.Defs[1].Name)
	assert.Len(t, constDecl.Defs[1].Dims, 1)
	assert.Len(t, constDecl.Defs[1].Init.List.Elems, 2)

	assert.False(t, unit.Decls[1].Var.Static)
	assert.True(t, unit.Decls[2].Var.Static)

	require.Len(t, unit.Funcs, 2)
	checkFunction(t, unit.Funcs[0], "sum", "int", []string{"a[]", "n"})
	checkFunction(t, unit.Funcs[1], "report", "void", []string{"v"})

	require.NotNil(t, unit.Main)
	assert.Len(t, unit.Main.Body.Items, 6)
}

func TestParseStatements(t *testing.T) {
	unit, err := grammar.ParseString("sample.sy", sample)
	require.NoError(t, err)
	items := unit.Main.Body.Items

	assign := items[2].Stmt.Assign
	require.NotNil(t, assign)
	assert.True(t, assign.GetInt)
	assert.Equal(t, "x", assign.Target.Name)

	ifStmt := items[3].Stmt.If
	require.NotNil(t, ifStmt)
	require.NotNil(t, ifStmt.Cond.LOr.Rest, "|| binds looser than &&")
	require.NotNil(t, ifStmt.Cond.LOr.And.Rest)
	require.NotNil(t, ifStmt.Else)
	assert.NotNil(t, ifStmt.Else.Assign)

	call := items[4].Stmt.Expr.Value.Add.Mul.Unary.Call
	require.NotNil(t, call)
	assert.Equal(t, "report", call.Name)

	loop := unit.Funcs[0].Body.Items[2].Stmt.For
	require.NotNil(t, loop)
	assert.NotNil(t, loop.Init)
	assert.NotNil(t, loop.Cond)
	assert.NotNil(t, loop.Step)

	printf := unit.Funcs[1].Body.Items[0].Stmt.Printf
	require.NotNil(t, printf)
	assert.Equal(t, `"v=%d\n"`, printf.Format)
	assert.Len(t, printf.Args, 1)
}

func TestExpressionChainsAreRightRecursive(t *testing.T) {
	unit, err := grammar.ParseString("chain.sy", `int main() { return 10 - 4 - 3; }`)
	require.NoError(t, err)

	add := unit.Main.Body.Items[0].Stmt.Return.Value.Add
	require.NotNil(t, add.Rest)
	assert.Equal(t, "-", add.Op)
	require.NotNil(t, add.Rest.Rest)
	assert.Equal(t, "-", add.Rest.Op)
	assert.Nil(t, add.Rest.Rest.Rest)
}

func TestEmptyForClauses(t *testing.T) {
	unit, err := grammar.ParseString("loop.sy", `int main() { for (;;) { break; } return 0; }`)
	require.NoError(t, err)

	loop := unit.Main.Body.Items[0].Stmt.For
	require.NotNil(t, loop)
	assert.Nil(t, loop.Init)
	assert.Nil(t, loop.Cond)
	assert.Nil(t, loop.Step)
	assert.True(t, loop.Body.Block.Items[0].Stmt.Break)
}

func TestKeywordsAreNotIdentifiers(t *testing.T) {
	_, err := grammar.ParseString("bad.sy", `int main() { int return; return 0; }`)
	assert.Error(t, err)

	unit, err := grammar.ParseString("ok.sy", `int main() { int returned; int main_x; return 0; }`)
	require.NoError(t, err)
	assert.Equal(t, "returned", unit.Main.Body.Items[0].Decl.Var.Defs[0].Name)
	assert.Equal(t, "main_x", unit.Main.Body.Items[1].Decl.Var.Defs[0].Name)
}

func TestPrintRoundTrip(t *testing.T) {
	unit, err := grammar.ParseString("sample.sy", sample)
	require.NoError(t, err)

	printed := unit.String()
	reparsed, err := grammar.ParseString("printed.sy", printed)
	require.NoError(t, err, "printed source:\n%s", printed)
	assert.Equal(t, printed, reparsed.String())
}

func checkFunction(t *testing.T, f *grammar.FuncDef, name, returnType string, params []string) {
	t.Helper()
	assert.Equal(t, name, f.Name)
	assert.Equal(t, returnType, f.Type)

	require.Len(t, f.Params, len(params))
	for i, p := range f.Params {
		got := p.Name
		if p.Array {
			got += "[]"
		}
		assert.Equal(t, params[i], got, "param %d", i)
	}
}
