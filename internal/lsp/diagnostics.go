package lsp

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ConvertParseError turns a textir parse failure into the diagnostic an
// editor should show for it. err comes from textir.ParseQuiet and is
// expected to satisfy participle.Error; anything else is reported at the
// top of the document rather than dropped.
func ConvertParseError(err error) []protocol.Diagnostic {
	if err == nil {
		return nil
	}

	pe, ok := err.(participle.Error)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    zeroRange(),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("zkir"),
			Message:  err.Error(),
		}}
	}

	pos := pe.Position()
	line := uint32(0)
	if pos.Line > 0 {
		line = uint32(pos.Line - 1)
	}
	col := uint32(0)
	if pos.Column > 0 {
		col = uint32(pos.Column - 1)
	}

	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("zkir"),
		Message:  pe.Message(),
	}}
}

func zeroRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 1},
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
