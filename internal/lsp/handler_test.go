package lsp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"zkir/internal/lsp"
)

// notifySpy captures the single PublishDiagnostics notification a
// republish sends, since glsp.Context talks over a real connection and
// has no test double of its own in the teacher's tests.
type notifySpy struct {
	params *protocol.PublishDiagnosticsParams
}

func newTestContext(spy *notifySpy) *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			p, ok := params.(*protocol.PublishDiagnosticsParams)
			if ok {
				spy.params = p
			}
		},
	}
}

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.zkir")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDidOpenPublishesNoDiagnosticsForValidSource(t *testing.T) {
	path := writeTemp(t, "type t0 = field 7;\nt0.$0 <- @public();\n")
	uri := "file://" + filepath.ToSlash(path)

	handler := lsp.NewHandler()
	spy := &notifySpy{}
	ctx := newTestContext(spy)

	err := handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri},
	})
	require.NoError(t, err)
	require.NotNil(t, spy.params)
	assert.Empty(t, spy.params.Diagnostics)
}

func TestDidChangePublishesDiagnosticForMalformedSource(t *testing.T) {
	path := writeTemp(t, "type t0 = field;\n")
	uri := "file://" + filepath.ToSlash(path)

	handler := lsp.NewHandler()
	spy := &notifySpy{}
	ctx := newTestContext(spy)

	err := handler.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, spy.params)
	require.Len(t, spy.params.Diagnostics, 1)
	assert.NotNil(t, spy.params.Diagnostics[0].Source)
}

func TestDidCloseForgetsDocument(t *testing.T) {
	path := writeTemp(t, "type t0 = field 7;\n")
	uri := "file://" + filepath.ToSlash(path)

	handler := lsp.NewHandler()
	spy := &notifySpy{}
	ctx := newTestContext(spy)

	require.NoError(t, handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri},
	}))
	require.NoError(t, handler.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
}
