package errors

import "fmt"

// The constructors below build a Diagnostic for each error kind named in
// spec.md §7. Line/column default to the directive's current source line;
// callers that only have a line number (no column, e.g. from the Handler's
// set_line_num side channel) leave Column at 0.

// AlreadyExists reports an @new/assign over an index already in `assigned`.
func AlreadyExists(wire uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorAlreadyExists,
		Message:  fmt.Sprintf("wire $%d is already assigned in this scope", wire),
		Position: Position{Line: line},
	}
}

// NotAssigned reports a read of a wire that was never written.
func NotAssigned(wire uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorNotAssigned,
		Message:  fmt.Sprintf("wire $%d has not been assigned", wire),
		Position: Position{Line: line},
	}
}

// Deleted reports a read/write of a wire that was assigned then deleted.
func Deleted(wire uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorDeleted,
		Message:  fmt.Sprintf("wire $%d was deleted and cannot be reused", wire),
		Position: Position{Line: line},
	}
}

// OutOfMem reports a range allocation that cannot be satisfied, e.g. because
// its computed extent would wrap past UINT64_MAX.
func OutOfMem(first, last uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorOutOfMem,
		Message:  fmt.Sprintf("cannot allocate range $%d..$%d", first, last),
		Position: Position{Line: line},
	}
}

// CannotDeleteRemap reports an attempted @delete over indices below first_local.
func CannotDeleteRemap(first, last uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorCannotDeleteRemap,
		Message:  fmt.Sprintf("range $%d..$%d is remapped from the caller and cannot be deleted here", first, last),
		Position: Position{Line: line},
	}
}

// UnmatchedDelete reports a partial @delete over a @new range.
func UnmatchedDelete(first, last uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorUnmatchedDelete,
		Message:  fmt.Sprintf("range $%d..$%d does not exactly match a @new range's extent", first, last),
		Position: Position{Line: line},
		HelpText: "partial deletion of a @new range is only allowed from a growable range",
	}
}

// Discontiguous reports find_inputs spanning more than one Range.
func Discontiguous(first, last uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorDiscontiguous,
		Message:  fmt.Sprintf("range $%d..$%d is not backed by a single contiguous allocation", first, last),
		Position: Position{Line: line},
	}
}

// InvalidRange reports first > last.
func InvalidRange(first, last uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorInvalidRange,
		Message:  fmt.Sprintf("invalid range: first ($%d) > last ($%d)", first, last),
		Position: Position{Line: line},
	}
}

// AliasedOperands reports a gate whose output wire coincides with an input.
func AliasedOperands(wire uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorAliasedOperands,
		Message:  fmt.Sprintf("wire $%d is used as both output and input of this gate", wire),
		Position: Position{Line: line},
	}
}

// UnknownType reports a type_idx outside the declared type table.
func UnknownType(typeIdx uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorUnknownType,
		Message:  fmt.Sprintf("type index %d is not declared", typeIdx),
		Position: Position{Line: line},
	}
}

// ConstantOverflow reports a literal not smaller than max_value.
func ConstantOverflow(value string, maxValue string, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorConstantOverflow,
		Message:  fmt.Sprintf("constant %s is not smaller than this type's max_value (%s)", value, maxValue),
		Position: Position{Line: line},
	}
}

// UnknownFunction reports an @call/@invoke to an undeclared name.
func UnknownFunction(name string, known []string, line int) Diagnostic {
	d := Diagnostic{
		Level:    Error,
		Code:     ErrorUnknownFunction,
		Message:  fmt.Sprintf("function '%s' is not declared", name),
		Position: Position{Line: line},
	}
	if s := closest(name, known); s != "" {
		d.Suggestions = []Suggestion{{Message: fmt.Sprintf("did you mean '%s'?", s)}}
	}
	return d
}

// DuplicateFunction reports a second declaration of an already-known name.
func DuplicateFunction(name string, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorDuplicateFunction,
		Message:  fmt.Sprintf("function '%s' is already declared", name),
		Position: Position{Line: line},
	}
}

// UnknownConverter reports a @convert with no matching Converter registered.
func UnknownConverter(outType, inType uint64, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorUnknownConverter,
		Message:  fmt.Sprintf("no converter registered from type %d to type %d", inType, outType),
		Position: Position{Line: line},
	}
}

// UnknownPlugin reports a plugin binding naming an unregistered plugin.
func UnknownPlugin(name string, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorUnknownPlugin,
		Message:  fmt.Sprintf("no plugin registered under the name '%s'", name),
		Position: Position{Line: line},
	}
}

// ArityMismatch reports an @call whose output/input range count disagrees
// with the function signature.
func ArityMismatch(function string, want, got int, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorArityMismatch,
		Message:  fmt.Sprintf("call to '%s' passes %d range(s), signature declares %d", function, got, want),
		Position: Position{Line: line},
	}
}

// LengthMismatch reports a range whose length disagrees with the signature.
func LengthMismatch(function string, index int, want, got int, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorLengthMismatch,
		Message:  fmt.Sprintf("call to '%s': range %d has length %d, signature declares %d", function, index, got, want),
		Position: Position{Line: line},
	}
}

// StreamUnderflow reports an @public/@private with no value left to read.
func StreamUnderflow(line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorStreamUnderflow,
		Message:  "input stream ended before this directive could be satisfied",
		Position: Position{Line: line},
	}
}

// StreamOutOfRange reports an input value not smaller than max_value.
func StreamOutOfRange(line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorStreamOutOfRange,
		Message:  "input stream produced a value that is not smaller than the type's max_value",
		Position: Position{Line: line},
	}
}

// StreamLeftoverData reports unread values remaining once the top-level
// directive list completes.
func StreamLeftoverData(typeIdx uint64) Diagnostic {
	return Diagnostic{
		Level:   Warning,
		Code:    ErrorStreamLeftoverData,
		Message: fmt.Sprintf("input stream for type %d has unread values after the program finished", typeIdx),
	}
}

// PluginSignatureRejected reports Plugin.create rejecting a signature.
func PluginSignatureRejected(plugin, operation, reason string, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorPluginSignatureRejected,
		Message:  fmt.Sprintf("plugin '%s::%s' rejected this function signature: %s", plugin, operation, reason),
		Position: Position{Line: line},
	}
}

// PluginBindingMalformed reports a plugin binding whose parameters an
// operation cannot make sense of.
func PluginBindingMalformed(plugin, operation, reason string, line int) Diagnostic {
	return Diagnostic{
		Level:    Error,
		Code:     ErrorPluginBindingMalformed,
		Message:  fmt.Sprintf("plugin binding '%s::%s' is malformed: %s", plugin, operation, reason),
		Position: Position{Line: line},
	}
}

// closest returns the single candidate with the smallest edit distance to
// name, if any candidate is within a reasonable distance.
func closest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist >= 0 && bestDist <= 2 && bestDist < len(name) {
		return best
	}
	return ""
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
