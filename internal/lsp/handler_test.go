package lsp_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sysyc/internal/errors"
	"sysyc/internal/lsp"
)

const docURI = "file:///tmp/sysyc-lsp/doc.sy"

// recorder captures publishDiagnostics notifications.
type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
}

func (r *recorder) last(t *testing.T) []protocol.Diagnostic {
	t.Helper()
	require.NotEmpty(t, r.published, "nothing was published")
	return r.published[len(r.published)-1].Diagnostics
}

func open(t *testing.T, h *lsp.SysyHandler, ctx *glsp.Context, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "sysy", Version: 1, Text: text},
	})
	require.NoError(t, err)
}

func change(t *testing.T, h *lsp.SysyHandler, ctx *glsp.Context, changes ...any) {
	t.Helper()
	err := h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
		ContentChanges: changes,
	})
	require.NoError(t, err)
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	handler := lsp.NewSysyHandler()

	absPath, err := filepath.Abs(filepath.Join("testdata", "sample.sy"))
	require.NoError(t, err, "Failed to get absolute path")

	rec := &recorder{}
	tokens, err := handler.TextDocumentSemanticTokensFull(rec.context(), &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file://" + filepath.ToSlash(absPath)},
	})
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Empty(t, rec.last(t), "sample lowers cleanly")

	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err, "Failed to decode semantic tokens")
	require.Len(t, decoded, 26)

	assertToken(t, &decoded[0], 1, 11, 1, "variable", []string{"declaration", "readonly"})
	assertToken(t, &decoded[1], 1, 15, 1, "number", nil)
	assertToken(t, &decoded[2], 2, 5, 5, "variable", []string{"declaration"})
	assertToken(t, &decoded[3], 3, 5, 3, "function", []string{"declaration"})
	assertToken(t, &decoded[4], 3, 13, 1, "parameter", []string{"declaration"})
	assertToken(t, &decoded[5], 3, 20, 1, "parameter", []string{"declaration"})
	assertToken(t, &decoded[6], 4, 16, 5, "variable", []string{"declaration", "static"})
	assertToken(t, &decoded[7], 4, 24, 1, "number", nil)
	assertToken(t, &decoded[8], 5, 5, 5, "variable", []string{"static"})
	assertToken(t, &decoded[9], 5, 13, 5, "variable", []string{"static"})
	assertToken(t, &decoded[10], 5, 21, 1, "number", nil)
	assertToken(t, &decoded[11], 6, 12, 1, "parameter", nil)
	assertToken(t, &decoded[12], 6, 16, 1, "parameter", nil)
	assertToken(t, &decoded[13], 6, 18, 1, "number", nil)
	assertToken(t, &decoded[14], 8, 5, 4, "function", []string{"declaration"})
	assertToken(t, &decoded[15], 9, 9, 3, "variable", []string{"declaration"})
	assertToken(t, &decoded[16], 9, 13, 1, "number", nil)
	assertToken(t, &decoded[17], 9, 19, 1, "number", nil)
	assertToken(t, &decoded[18], 9, 22, 1, "number", nil)
	assertToken(t, &decoded[19], 10, 5, 5, "variable", nil)
	assertToken(t, &decoded[20], 10, 13, 6, "function", []string{"defaultLibrary"})
	assertToken(t, &decoded[21], 11, 12, 6, "string", nil)
	assertToken(t, &decoded[22], 11, 20, 3, "function", nil)
	assertToken(t, &decoded[23], 11, 24, 1, "variable", []string{"readonly"})
	assertToken(t, &decoded[24], 11, 27, 3, "variable", nil)
	assertToken(t, &decoded[25], 12, 12, 1, "number", nil)
}

func TestSemanticTokensMissingFile(t *testing.T) {
	handler := lsp.NewSysyHandler()
	_, err := handler.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///does/not/exist.sy"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestDidOpenPublishesLoweringWarnings(t *testing.T) {
	handler := lsp.NewSysyHandler()
	rec := &recorder{}

	open(t, handler, rec.context(), "int main() {\n    int count;\n    cont = 1;\n    return 0;\n}\n")

	require.Len(t, rec.published, 1)
	assert.Equal(t, docURI, rec.published[0].URI)
	diags := rec.last(t)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	assert.Equal(t, errors.WarningUnresolvedSymbol, d.Code.Value)
	assert.Equal(t, "sysyc", *d.Source)
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, d.Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 8}, d.Range.End)
	assert.Contains(t, d.Message, "help: did you mean 'count'?")
}

func TestDidChangeRepublishes(t *testing.T) {
	handler := lsp.NewSysyHandler()
	rec := &recorder{}
	ctx := rec.context()

	open(t, handler, ctx, "int main() {\n    return ;\n")
	diags := rec.last(t)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)

	change(t, handler, ctx, protocol.TextDocumentContentChangeEventWhole{Text: "int main() {\n    return 0;\n}\n"})
	assert.Empty(t, rec.last(t), "fixed document clears diagnostics")
	assert.NotNil(t, rec.last(t))
}

func TestDidChangeIncremental(t *testing.T) {
	handler := lsp.NewSysyHandler()
	rec := &recorder{}
	ctx := rec.context()

	open(t, handler, ctx, "int main() {\n    break;\n    return 0;\n}\n")
	require.Len(t, rec.last(t), 1)

	// replace "break;" with "{}"
	change(t, handler, ctx, protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: 1, Character: 4},
			End:   protocol.Position{Line: 1, Character: 10},
		},
		Text: "{}",
	})
	assert.Empty(t, rec.last(t))
}

func TestCompletion(t *testing.T) {
	handler := lsp.NewSysyHandler()
	rec := &recorder{}
	ctx := rec.context()
	open(t, handler, ctx, "const int LIMIT = 3;\nint seen;\nvoid tick() { }\nint main() { return 0; }\n")

	// a later syntax error keeps the last good tree
	change(t, handler, ctx, protocol.TextDocumentContentChangeEventWhole{Text: "int main( {"})

	result, err := handler.TextDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		},
	})
	require.NoError(t, err)
	list := result.(*protocol.CompletionList)

	kinds := make(map[string]protocol.CompletionItemKind)
	for _, item := range list.Items {
		kinds[item.Label] = *item.Kind
	}
	assert.Equal(t, protocol.CompletionItemKindKeyword, kinds["for"])
	assert.Equal(t, protocol.CompletionItemKindKeyword, kinds["getint"])
	assert.Equal(t, protocol.CompletionItemKindFunction, kinds["putint"])
	assert.Equal(t, protocol.CompletionItemKindFunction, kinds["tick"])
	assert.Equal(t, protocol.CompletionItemKindConstant, kinds["LIMIT"])
	assert.Equal(t, protocol.CompletionItemKindVariable, kinds["seen"])
}

func TestDidCloseForgetsDocument(t *testing.T) {
	handler := lsp.NewSysyHandler()
	rec := &recorder{}
	ctx := rec.context()
	open(t, handler, ctx, "void tick() { }\nint main() { return 0; }\n")

	require.NoError(t, handler.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}))

	result, err := handler.TextDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		},
	})
	require.NoError(t, err)
	for _, item := range result.(*protocol.CompletionList).Items {
		assert.NotEqual(t, "tick", item.Label)
	}
}

func TestInitializeAdvertisesLegend(t *testing.T) {
	handler := lsp.NewSysyHandler()
	result, err := handler.Initialize(&glsp.Context{}, &protocol.InitializeParams{})
	require.NoError(t, err)

	caps := result.(*protocol.InitializeResult).Capabilities
	tokens := caps.SemanticTokensProvider.(*protocol.SemanticTokensOptions)
	assert.Equal(t, lsp.SemanticTokenTypes, tokens.Legend.TokenTypes)
	assert.Equal(t, lsp.SemanticTokenModifiers, tokens.Legend.TokenModifiers)
}

func TestConvertDiagnosticsMessage(t *testing.T) {
	src := "int main() { return nope(); }\n"
	unit, diags := lsp.Analyze("x.sy", src)
	require.NotNil(t, unit)

	converted := lsp.ConvertDiagnostics(diags)
	require.Len(t, converted, 1)
	assert.Equal(t, errors.WarningUndeclaredFunction, converted[0].Code.Value)
	assert.Contains(t, converted[0].Message, "call to undeclared function 'nope'")
	assert.Contains(t, converted[0].Message, "note: the call is assumed to return int")
	assert.Equal(t, uint32(20), converted[0].Range.Start.Character)
}

type DecodedToken struct {
	Index     int
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		deltaLine := raw[i]
		deltaStart := raw[i+1]

		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if raw[i+4]&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Index:     i / 5,
			Line:      line + 1,
			Char:      char + 1,
			Length:    raw[i+2],
			Type:      lsp.SemanticTokenTypes[raw[i+3]],
			Modifiers: modifiers,
		})
	}

	return decoded, nil
}

func assertToken(t *testing.T, token *DecodedToken, expectedLine, expectedChar, expectedLength uint32, expectedType string, expectedModifiers []string) {
	t.Helper()
	require.Equal(t, expectedLine, token.Line, "line mismatch (token %d)", token.Index)
	require.Equal(t, expectedChar, token.Char, "char mismatch (token %d)", token.Index)
	require.Equal(t, expectedLength, token.Length, "length mismatch (token %d)", token.Index)
	require.Equal(t, expectedType, token.Type, "type mismatch (token %d)", token.Index)
	require.ElementsMatch(t, expectedModifiers, token.Modifiers, "modifiers mismatch (token %d)", token.Index)
}
