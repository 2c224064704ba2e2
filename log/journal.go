package log

import (
	"context"

	"github.com/coreos/go-systemd/v22/journal"
)

// InitJournalHandler makes the log package print to the journal if stderr is connected to it.
// If force is true, the journal is used regardless of where stderr points to, as long as it is available.
func InitJournalHandler(force bool) bool {
	if !journal.Enabled() {
		if force {
			Warning(context.Background(), "Journal logging requested, but the journal is not available")
		}
		return false
	}

	if !force {
		isJournalStream, err := journal.StderrIsJournalStream()
		if err != nil {
			Warningf(context.Background(), "Error checking if stderr is connected to the journal: %v", err)
			return false
		}
		if !isJournalStream {
			return false
		}
	}

	SetHandler(func(_ context.Context, level Level, format string, args ...interface{}) {
		_ = journal.Print(mapPriority(level), format, args...)
	})
	return true
}

func mapPriority(level Level) journal.Priority {
	switch {
	case level <= DebugLevel:
		return journal.PriDebug
	case level <= InfoLevel:
		return journal.PriInfo
	case level <= NoticeLevel:
		return journal.PriNotice
	case level <= WarnLevel:
		return journal.PriWarning
	case level <= ErrorLevel:
		return journal.PriErr
	}
	return journal.PriCrit
}
