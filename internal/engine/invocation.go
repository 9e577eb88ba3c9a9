package engine

// InvocationSpec describes one external-process launch. It is built fresh per
// request and never modified afterwards.
//
// Exactly one of Script and Inline is set. Args are handed to the process as a
// discrete vector; nothing here is ever concatenated into a shell command
// string, so request parameters cannot break out of their argument slot.
type InvocationSpec struct {
	// Interpreter is the executable to launch (typically the engine's python).
	Interpreter string
	// Script is a path to the script file to run.
	Script string
	// Inline is script text passed via the interpreter's -c flag.
	Inline string
	// Args are appended after the script, in order.
	Args []string
}

// ScriptInvocation builds a spec for a file-based script.
func ScriptInvocation(interpreter, script string, args ...string) InvocationSpec {
	return InvocationSpec{
		Interpreter: interpreter,
		Script:      script,
		Args:        append([]string(nil), args...),
	}
}

// InlineInvocation builds a spec for inline script text.
func InlineInvocation(interpreter, inline string, args ...string) InvocationSpec {
	return InvocationSpec{
		Interpreter: interpreter,
		Inline:      inline,
		Args:        append([]string(nil), args...),
	}
}

// argv returns the argument vector following the interpreter.
func (s InvocationSpec) argv() []string {
	args := make([]string, 0, len(s.Args)+2)
	if s.Inline != "" {
		args = append(args, "-c", s.Inline)
	} else {
		args = append(args, s.Script)
	}
	return append(args, s.Args...)
}

// Label returns a short description of the invocation target for logging.
func (s InvocationSpec) Label() string {
	if s.Inline != "" {
		return s.Interpreter + " -c <inline>"
	}
	return s.Interpreter + " " + s.Script
}
