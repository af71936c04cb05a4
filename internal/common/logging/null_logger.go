package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NullLogger discards everything. Useful as the logger of components under test.
var NullLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// NullEntry is NullLogger wrapped as an entry, the type most components accept.
func NullEntry() *logrus.Entry {
	return logrus.NewEntry(NullLogger)
}
