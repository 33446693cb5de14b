// Package lsp implements a language server for the textir directive
// format, the textir analogue of the teacher's KansoHandler: it tracks
// open documents and republishes diagnostics on open/change the way
// KansoHandler tracked ast.Contract per document. Scope is narrower than
// the teacher's — diagnostics only, no completion or semantic tokens,
// since textir has no identifiers or attributes worth completing against.
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"zkir/internal/textir"
)

// Handler implements the glsp.Handler methods zkir-lsp wires up.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("zkir-lsp Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("zkir-lsp Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("zkir-lsp Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.republish(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	return h.republish(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()

	return nil
}

// republish re-parses the document at uri and pushes whatever diagnostics
// result — an empty slice clears any diagnostics from a prior, broken
// version of the same file.
func (h *Handler) republish(ctx *glsp.Context, uri protocol.DocumentUri) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	diagnostics := []protocol.Diagnostic{}
	if _, parseErr := textir.ParseQuiet(path, string(source)); parseErr != nil {
		diagnostics = ConvertParseError(parseErr)
		h.mu.Lock()
		delete(h.content, path)
		h.mu.Unlock()
	} else {
		h.mu.Lock()
		h.content[path] = string(source)
		h.mu.Unlock()
	}

	sendDiagnosticNotification(ctx, uri, diagnostics)
	return nil
}

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

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
