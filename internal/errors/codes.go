package errors

// Error codes for the ZK-IR interpreter.
//
// Error code ranges:
// W0001-W0099: Scope errors
// W0100-W0199: Type errors
// W0200-W0299: Reference errors
// W0300-W0399: Arity errors
// W0400-W0499: Stream errors
// W0500-W0599: Plugin errors

const (
	// Scope errors (W0001-W0099)

	ErrorAlreadyExists     = "W0001"
	ErrorNotAssigned       = "W0002"
	ErrorDeleted           = "W0003"
	ErrorOutOfMem          = "W0004"
	ErrorCannotDeleteRemap = "W0005"
	ErrorUnmatchedDelete   = "W0006"
	ErrorDiscontiguous     = "W0007"
	ErrorNonemptySubscope  = "W0008"
	ErrorInvalidRange      = "W0009"

	// Type errors (W0100-W0199)

	ErrorUnknownType      = "W0100"
	ErrorConstantOverflow = "W0101"
	ErrorAliasedOperands  = "W0102"

	// Reference errors (W0200-W0299)

	ErrorUnknownFunction   = "W0200"
	ErrorUnknownConverter  = "W0201"
	ErrorUnknownPlugin     = "W0202"
	ErrorDuplicateFunction = "W0203"

	// Arity errors (W0300-W0399)

	ErrorArityMismatch  = "W0300"
	ErrorLengthMismatch = "W0301"

	// Stream errors (W0400-W0499)

	ErrorStreamUnderflow    = "W0400"
	ErrorStreamOutOfRange   = "W0401"
	ErrorStreamLeftoverData = "W0402"

	// Plugin errors (W0500-W0599)

	ErrorPluginSignatureRejected = "W0500"
	ErrorPluginBindingMalformed  = "W0501"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorAlreadyExists:
		return "wire index already assigned in this scope"
	case ErrorNotAssigned:
		return "wire index was never assigned"
	case ErrorDeleted:
		return "wire index was assigned but has since been deleted"
	case ErrorOutOfMem:
		return "range allocation failed"
	case ErrorCannotDeleteRemap:
		return "a remapped range cannot be deleted by the callee"
	case ErrorUnmatchedDelete:
		return "delete range does not match a new_range's extent exactly"
	case ErrorDiscontiguous:
		return "range spans more than one underlying allocation"
	case ErrorNonemptySubscope:
		return "scope still holds live wires at teardown"
	case ErrorInvalidRange:
		return "range bounds are invalid (first > last)"
	case ErrorUnknownType:
		return "type_idx does not name a declared type"
	case ErrorConstantOverflow:
		return "constant value is not smaller than the type's max_value"
	case ErrorAliasedOperands:
		return "a gate's output wire must differ from each of its input wires"
	case ErrorUnknownFunction:
		return "function name is not declared"
	case ErrorUnknownConverter:
		return "no converter registered for this (out_type, in_type) pair"
	case ErrorUnknownPlugin:
		return "no plugin registered under this name"
	case ErrorDuplicateFunction:
		return "a function with this name is already declared"
	case ErrorArityMismatch:
		return "output/input range count does not match the function signature"
	case ErrorLengthMismatch:
		return "range length does not match the function signature"
	case ErrorStreamUnderflow:
		return "input stream ended before the directive could be satisfied"
	case ErrorStreamOutOfRange:
		return "input stream produced a value not smaller than max_value"
	case ErrorStreamLeftoverData:
		return "input stream had unread values after the top-level directive list completed"
	case ErrorPluginSignatureRejected:
		return "plugin operation rejected the function signature"
	case ErrorPluginBindingMalformed:
		return "plugin binding parameters are malformed for this operation"
	default:
		return "unknown error code"
	}
}

// GetErrorCategory returns the category of the error based on its code.
func GetErrorCategory(code string) string {
	switch {
	case code >= "W0001" && code < "W0100":
		return "Scope"
	case code >= "W0100" && code < "W0200":
		return "Type"
	case code >= "W0200" && code < "W0300":
		return "Reference"
	case code >= "W0300" && code < "W0400":
		return "Arity"
	case code >= "W0400" && code < "W0500":
		return "Stream"
	case code >= "W0500" && code < "W0600":
		return "Plugin"
	default:
		return "Unknown"
	}
}
