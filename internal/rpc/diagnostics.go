package rpc

import (
	"errors"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/emitter"
)

const diagnosticSource = "vuedoc"

func warningDiagnostic(w emitter.Warning) Diagnostic {
	return Diagnostic{
		Range:    lineRange(w.Line),
		Severity: DiagnosticSeverityWarning,
		Source:   diagnosticSource,
		Message:  w.Message,
	}
}

func errorDiagnostic(err error) Diagnostic {
	d := Diagnostic{
		Range:    lineRange(0),
		Severity: DiagnosticSeverityError,
		Source:   diagnosticSource,
		Message:  err.Error(),
	}

	var parseErr *component.ParseError
	if errors.As(err, &parseErr) {
		d.Message = parseErr.Message
		d.Range = lineRange(parseErr.Line)
		if parseErr.Column > 0 {
			d.Range.Start.Character = parseErr.Column - 1
		}
	}
	return d
}

// lineRange covers a whole 1-based line. Anomalies without a position are
// reported on the first line.
func lineRange(line int) Range {
	if line > 0 {
		line--
	}
	return Range{
		Start: Position{Line: line},
		End:   Position{Line: line + 1},
	}
}
