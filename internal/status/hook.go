package status

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RingHook mirrors log entries into the operator ring. Warnings and errors
// get the WARNING:/ERROR: prefixes the UI colors lines by; info lines pass
// through untouched (the engine emits its own SUCCESS: lines there).
type RingHook struct {
	ring *Ring
}

func NewRingHook(ring *Ring) *RingHook {
	return &RingHook{ring: ring}
}

func (h *RingHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
}

func (h *RingHook) Fire(entry *logrus.Entry) error {
	prefix := ""
	switch entry.Level {
	case logrus.WarnLevel:
		prefix = "WARNING: "
	case logrus.ErrorLevel:
		prefix = "ERROR: "
	}
	h.ring.Append(fmt.Sprintf("%s %s%s", entry.Time.Format("15:04:05"), prefix, entry.Message))
	return nil
}
