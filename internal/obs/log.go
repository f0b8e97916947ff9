// Package obs wires the process-wide structured logger.
package obs

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts verbosity; called from cmd/inspectord after flag parsing.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		base.Warnf("unknown log level %q, keeping %s", level, base.GetLevel())
		return
	}
	base.SetLevel(lvl)
}

// For returns a component-scoped logger, mirroring the "[Component] message"
// prefixing the teacher's debugger adapters use, but as structured fields.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
