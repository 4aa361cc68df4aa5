// Package loupehandler provides the nlog target that forwards log entries
// to a Loupe agent.
//
// Each entry is translated field by field and handed to the agent with
// exactly one loupe.Writer.Write call:
//   - the level is mapped to a loupe.Severity (MapSeverity)
//   - the call site is resolved from the captured caller info
//     (ResolveCaller) or from the captured stack frame (ResolveFrame)
//   - the attached error is found by ExtractError
//   - message, category, caption and details are rendered from layouts
//
// The handler keeps no per-entry state and never blocks: messages are
// written in loupe.Queued mode and buffering belongs to the agent.
//
// Basic usage:
//
//	agent := loupe.NewAgent()
//	h, err := loupehandler.NewBuilder(agent).
//		WithSession(loupe.AgentConfig{Application: "BusyWork"}).
//		WithEventProperties(true).
//		Build()
//	if err != nil {
//		return err
//	}
//	log := logger.NewBuilder().WithHandler(h).Build()
package loupehandler
