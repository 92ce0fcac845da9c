package sdk

import (
	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/transport"
)

// Listener is notified of what the tracker does with each hit
type Listener interface {
	// BuildDidEnd is called with every hit before it is sent
	BuildDidEnd(hit []param.Pair)
	// SendDidEnd is called after the transport returned; err is nil on success
	SendDidEnd(hit []param.Pair, err error)
	// WarningDidOccur reports a non-fatal problem, such as a dropped parameter
	WarningDidOccur(message string)
	// ErrorDidOccur reports a failed operation
	ErrorDidOccur(err error)
}

// LogListener logs tracker events
type LogListener struct {
	Logger logrus.FieldLogger
}

// NewLogListener returns a listener writing to the standard logrus logger
func NewLogListener() *LogListener {
	return &LogListener{Logger: logrus.StandardLogger()}
}

func (l *LogListener) BuildDidEnd(hit []param.Pair) {
	l.Logger.WithField("params", len(hit)).Debugf("hit built: %s", transport.Query(hit))
}

func (l *LogListener) SendDidEnd(hit []param.Pair, err error) {
	if err != nil {
		l.Logger.WithError(err).Warn("hit not sent")
		return
	}
	l.Logger.WithField("params", len(hit)).Debug("hit sent")
}

func (l *LogListener) WarningDidOccur(message string) {
	l.Logger.Warn(message)
}

func (l *LogListener) ErrorDidOccur(err error) {
	l.Logger.WithError(err).Error("tracker error")
}
