package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sysyc/grammar"
)

var log = commonlog.GetLogger("sysyc.lsp")

// SemanticTokenTypes is the token legend advertised to clients
var SemanticTokenTypes = []string{
	"function",
	"parameter",
	"variable",
	"number",
	"string",
}

// SemanticTokenModifiers is the modifier legend; bit i is entry i
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
	"static",
	"defaultLibrary",
}

var keywords = []string{
	"break", "const", "continue", "else", "for", "getint", "if", "int", "printf", "return", "static", "void",
}

// SysyHandler implements the LSP server handlers for SysY
type SysyHandler struct {
	mu      sync.RWMutex
	content map[string]string
	units   map[string]*grammar.CompUnit
}

func NewSysyHandler() *SysyHandler {
	return &SysyHandler{
		content: make(map[string]string),
		units:   make(map[string]*grammar.CompUnit),
	}
}

// Initialize advertises the server's capabilities
func (h *SysyHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *SysyHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

func (h *SysyHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

func (h *SysyHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen analyzes the opened text and publishes its diagnostics
func (h *SysyHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("opened %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.publish(ctx, params.TextDocument.URI, h.update(path, params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange applies the content changes in order and republishes
func (h *SysyHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.RLock()
	text := h.content[path]
	h.mu.RUnlock()

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			text = applyChange(text, c)
		}
	}
	h.publish(ctx, params.TextDocument.URI, h.update(path, text))
	return nil
}

func (h *SysyHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("closed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.units, path)
	return nil
}

// TextDocumentCompletion offers keywords, runtime routines and the
// functions and globals of the last successfully parsed version.
func (h *SysyHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	unit := h.units[path]
	h.mu.RUnlock()

	var items []protocol.CompletionItem
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		k := kind
		item := protocol.CompletionItem{Label: label, Kind: &k}
		if detail != "" {
			item.Detail = ptrString(detail)
		}
		items = append(items, item)
	}

	for _, kw := range keywords {
		add(kw, protocol.CompletionItemKindKeyword, "")
	}
	runtimeNames := make([]string, 0, len(runtimeFunctions))
	for name := range runtimeFunctions {
		runtimeNames = append(runtimeNames, name)
	}
	sort.Strings(runtimeNames)
	for _, name := range runtimeNames {
		if name != "getint" {
			add(name, protocol.CompletionItemKindFunction, "runtime")
		}
	}

	if unit != nil {
		for _, f := range unit.Funcs {
			add(f.Name, protocol.CompletionItemKindFunction, f.Type+" function")
		}
		for _, d := range unit.Decls {
			if d.Const != nil {
				for _, def := range d.Const.Defs {
					add(def.Name, protocol.CompletionItemKindConstant, "const int")
				}
				continue
			}
			for _, def := range d.Var.Defs {
				add(def.Name, protocol.CompletionItemKindVariable, "int")
			}
		}
	}

	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// TextDocumentSemanticTokensFull encodes the tokens of the whole document
// using relative line and start offsets.
func (h *SysyHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	rawURI := params.TextDocument.URI
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}

	unit, source, err := h.getOrLoad(ctx, path, rawURI)
	if err != nil {
		return nil, err
	}

	data := []uint32{}
	var prevLine, prevStart uint32
	for _, token := range collectSemanticTokens(unit, source) {
		deltaLine := token.Line - prevLine
		deltaStart := token.StartChar
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

// getOrLoad returns the cached tree for path, reading the file from disk
// when the document was never opened.
func (h *SysyHandler) getOrLoad(ctx *glsp.Context, path string, rawURI protocol.DocumentUri) (*grammar.CompUnit, string, error) {
	h.mu.RLock()
	unit, ok := h.units[path]
	source := h.content[path]
	h.mu.RUnlock()
	if ok {
		return unit, source, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	h.publish(ctx, rawURI, h.update(path, string(content)))

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.units[path], string(content), nil
}

// update analyzes source and caches it. The cached tree is kept when the
// new text does not parse, so tokens and completion degrade gracefully.
func (h *SysyHandler) update(path, source string) []protocol.Diagnostic {
	unit, diags := Analyze(path, source)

	h.mu.Lock()
	h.content[path] = source
	if unit != nil {
		h.units[path] = unit
	}
	h.mu.Unlock()

	return ConvertDiagnostics(diags)
}

func (h *SysyHandler) publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// applyChange replaces the range of an incremental change.
func applyChange(text string, c protocol.TextDocumentContentChangeEvent) string {
	if c.Range == nil {
		return c.Text
	}
	start := offsetOf(text, c.Range.Start)
	end := offsetOf(text, c.Range.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + c.Text + text[end:]
}

func offsetOf(text string, pos protocol.Position) int {
	line := uint32(0)
	for i := 0; i < len(text); i++ {
		if line == pos.Line {
			return min(i+int(pos.Character), lineEnd(text, i))
		}
		if text[i] == '\n' {
			line++
		}
	}
	return len(text)
}

func lineEnd(text string, from int) int {
	if i := strings.IndexByte(text[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(text)
}

// uriToPath converts a file URI to a platform-local path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
