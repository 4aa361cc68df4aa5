package loupe

// Severity is the agent's severity scale. Lower non-zero values are more
// severe; None marks a message with no severity.
type Severity uint8

const (
	None        Severity = 0
	Critical    Severity = 1
	Error       Severity = 2
	Warning     Severity = 4
	Information Severity = 8
	Verbose     Severity = 16
)

// String returns the name of the severity
func (s Severity) String() string {
	switch s {
	case None:
		return "None"
	case Critical:
		return "Critical"
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	case Information:
		return "Information"
	case Verbose:
		return "Verbose"
	default:
		return "Unknown"
	}
}

// Rank orders severities from least to most severe: Verbose is 1,
// Critical is 5. None and unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case Verbose:
		return 1
	case Information:
		return 2
	case Warning:
		return 3
	case Error:
		return 4
	case Critical:
		return 5
	default:
		return 0
	}
}

// WriteMode controls whether Write waits for the message to reach the sinks.
type WriteMode uint8

const (
	// Queued hands the message to the agent and returns immediately.
	Queued WriteMode = iota
	// WaitForCommit returns once the message has been passed to every sink.
	WaitForCommit
)

// String returns the name of the write mode
func (m WriteMode) String() string {
	switch m {
	case Queued:
		return "Queued"
	case WaitForCommit:
		return "WaitForCommit"
	default:
		return "Unknown"
	}
}
