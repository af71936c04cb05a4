package logging

import (
	"bytes"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CommandLineFormatter prints the message followed by any fields as key=value pairs in key order,
// without timestamps or levels.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Message)
	keys := maps.Keys(entry.Data)
	slices.Sort(keys)
	for _, k := range keys {
		if k == Stacktrace {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
