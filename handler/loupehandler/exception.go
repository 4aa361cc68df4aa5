package loupehandler

import "github.com/philipp01105/nlog-loupe/core"

// ExtractError returns the error to attach to the Loupe message: the
// entry's explicit error when set, otherwise the first positional
// argument that implements error. Later error arguments are ignored.
func ExtractError(e *core.Entry) error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	for _, arg := range e.Args {
		if err, ok := arg.(error); ok && err != nil {
			return err
		}
	}
	return nil
}
