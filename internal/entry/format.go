package entry

import "strings"

// FormatParam renders a parameter the way it appears in a signature,
// e.g. `somebody?: string | string[] = "John Doe"` or `...values: string[]`.
func FormatParam(p Param) string {
	var b strings.Builder
	if p.Rest {
		b.WriteString("...")
	}
	b.WriteString(p.Name)
	if p.Optional && !p.Rest {
		b.WriteString("?")
	}
	b.WriteString(": ")
	b.WriteString(p.Type.String())
	if p.DefaultValue != "" {
		b.WriteString(" = ")
		b.WriteString(p.DefaultValue)
	}
	return b.String()
}

// Signature reconstructs `name(p: T, ...r: T[]): R`. Parameters continuing a
// previous one (`employee.name`) are left out of the parameter list.
func Signature(name string, params []Param, returns TypeExpr) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if strings.ContainsAny(p.Name, ".[") {
			continue
		}
		parts = append(parts, FormatParam(p))
	}
	if returns == nil {
		returns = Scalar("void")
	}
	return name + "(" + strings.Join(parts, ", ") + "): " + returns.String()
}
