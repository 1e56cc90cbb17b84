package progress

import "subreckon/internal/logx"

// LogSink is the default Sink used by the CLI when no richer UI is wired
// in: it renders each lifecycle transition as a log line. A full terminal
// progress bar, as the teacher's progressBar, is explicitly out of scope
// here (spec.md §1 treats the UI as an external collaborator) — this is
// just enough to make the engine runnable and observable on its own.
type LogSink struct{}

func (LogSink) Update(e Event) {
	if e.Status == nil {
		if e.CountIncrement != 0 {
			logx.Debugf("progress: %s +%d", e.Source, e.CountIncrement)
		}
		return
	}
	switch *e.Status {
	case Running:
		logx.Infof("source %s: running", e.Source)
	case Completed:
		logx.Infof("source %s: completed (%d candidates)", e.Source, e.CountIncrement)
	case Failed:
		logx.Warnf("source %s: failed", e.Source)
	case Timeout:
		logx.Warnf("source %s: timeout", e.Source)
	}
}
