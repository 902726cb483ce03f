package diagnostics

import (
	"fmt"
	"time"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	CodeSessionStarted = "SESSION.STARTED"
	CodeSessionStopped = "SESSION.STOPPED"
	CodeFrameDropped   = "FRAME.DROPPED"
	CodeReconnect      = "TRANSPORT.RECONNECT"
	CodeFatal          = "TRANSPORT.FATAL"
	CodeQueueFull      = "INPUT.QUEUE_FULL"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

func SessionStarted(id, transport string) Diagnostic {
	return Diagnostic{
		Severity: Info, Code: CodeSessionStarted, Summary: "Lighting session started",
		Evidence: map[string]any{"session": id, "transport": transport},
	}
}

func SessionStopped(id string, frames uint64, err error) Diagnostic {
	d := Diagnostic{
		Severity: Info, Code: CodeSessionStopped, Summary: "Lighting session stopped",
		Evidence: map[string]any{"session": id, "frames": frames},
	}
	if err != nil {
		d.Severity = Err
		d.Detail = err.Error()
	}
	return d
}

func FrameDropped(elapsed, budget time.Duration, dropped uint64) Diagnostic {
	return Diagnostic{
		Severity: Warn, Code: CodeFrameDropped, Summary: "Tick exceeded its budget",
		Detail:         fmt.Sprintf("%s > %s", elapsed, budget),
		LikelyCauses:   []string{"slow transport write", "too many layers for the tick rate"},
		SuggestedFixes: []string{"lower fps", "raise write timeout"},
		Evidence: map[string]any{
			"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
			"budget_ms":  float64(budget.Microseconds()) / 1000.0,
			"dropped":    dropped,
		},
	}
}

func Reconnect(err error, attempt uint64) Diagnostic {
	return Diagnostic{
		Severity: Warn, Code: CodeReconnect, Summary: "Write failed, reconnecting",
		Detail:       err.Error(),
		LikelyCauses: []string{"keyboard unplugged", "device stalled"},
		Evidence:     map[string]any{"reconnects": attempt},
	}
}

func Fatal(err error) Diagnostic {
	return Diagnostic{
		Severity: Err, Code: CodeFatal, Summary: "Transport failed after reconnect",
		Detail:         err.Error(),
		SuggestedFixes: []string{"check the USB connection", "check hidraw permissions"},
	}
}

func QueueFull(source string, dropped uint64) Diagnostic {
	return Diagnostic{
		Severity: Warn, Code: CodeQueueFull, Summary: "Trigger queue full, event rejected",
		Evidence: map[string]any{"source": source, "dropped": dropped},
	}
}
