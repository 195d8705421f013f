package errors

// Diagnostic codes. Errors stop compilation; warnings describe source the
// lowering accepted by substituting a fallback.
const (
	// E0100: Source does not match the grammar
	ErrorSyntax = "E0100"

	// E0101: Unexpected end of input
	ErrorUnexpectedEOF = "E0101"

	// W0001: Name used without a declaration in scope
	WarningUnresolvedSymbol = "W0001"

	// W0002: Call to a function that is neither defined nor a runtime routine
	WarningUndeclaredFunction = "W0002"

	// W0003: Array dimension that is not a non-negative constant
	WarningNonConstantDimension = "W0003"

	// W0004: Const, global or static initializer that is not constant
	WarningNonConstantInitializer = "W0004"

	// W0005: break or continue outside any loop
	WarningJumpOutsideLoop = "W0005"

	// W0006: printf placeholders and arguments disagree
	WarningPrintfArguments = "W0006"

	// W0007: Statements after return, break or continue
	WarningUnreachableCode = "W0007"
)

// GetErrorDescription returns a human-readable description of the code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Source text does not match the SysY grammar"
	case ErrorUnexpectedEOF:
		return "Source ended in the middle of a construct"
	case WarningUnresolvedSymbol:
		return "Name is used but not declared in any enclosing scope"
	case WarningUndeclaredFunction:
		return "Function is called but never defined"
	case WarningNonConstantDimension:
		return "Array dimension is not a compile-time constant"
	case WarningNonConstantInitializer:
		return "Initializer must be evaluable at compile time"
	case WarningJumpOutsideLoop:
		return "break or continue is not inside a loop"
	case WarningPrintfArguments:
		return "printf format and argument count differ"
	case WarningUnreachableCode:
		return "Code is unreachable"
	default:
		return "Unknown diagnostic code"
	}
}

// IsWarning reports whether code names a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the compiler stage a code belongs to
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Parser"
	case code >= "W0001" && code < "W0100":
		return "Lowering"
	default:
		return "Unknown"
	}
}
