// Package loupe is the outbound side of the bridge: the message model a
// log target hands to the agent, and the in-process Agent that owns the
// session and ships messages to its sinks.
//
// Writers only ever see a Message by value. Queued writes never block;
// the agent drops on a full queue and counts the drop. WaitForCommit
// writes return once the message has been handed to every sink.
//
// Basic usage:
//
//	agent := loupe.NewAgent()
//	agent.StartSession(loupe.AgentConfig{
//		Product:     "Demo",
//		Application: "BusyWork",
//		Sinks:       []loupe.Sink{loupe.NewZapSink(zap.NewExample())},
//	})
//	defer agent.EndSession("Application shutting down")
package loupe
