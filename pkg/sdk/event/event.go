// Package event turns application events into hit parameters.
//
// Each kind is a plain record. Apply validates it and writes its parameters
// into the volatile collection of a param.Buffer.
package event

import (
	"errors"
	"fmt"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Kind names an event variant
type Kind string

const (
	KindScreen                  Kind = "screen"
	KindMedia                   Kind = "media"
	KindPartner                 Kind = "partner"
	KindCartAwaitingPayment     Kind = "cart.awaiting_payment"
	KindTransactionConfirmation Kind = "transaction.confirmation"
)

// Hit parameter names written by events
const (
	ParamType          = "type"
	ParamPage          = "p"
	ParamAction        = "a"
	ParamLevel2        = "s2"
	ParamDuration      = "m1"
	ParamEmbedding     = "m5"
	ParamBroadcast     = "m6"
	ParamWebDomain     = "m9"
	ParamPlayer        = "plyr"
	ParamLinkedContent = "clnk"
	ParamJSON          = "stc"
	ParamEvents        = "events"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid event")

// Event is one of the records of this package
type Event interface {
	Kind() Kind
	Validate() error
	sealed()
}

// Apply validates ev and sets its parameters on buf
func Apply(buf *param.Buffer, ev Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", ErrInvalid)
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%s event: %w", ev.Kind(), err)
	}

	switch e := ev.(type) {
	case Screen:
		return applyScreen(buf, e)
	case Media:
		return applyMedia(buf, e)
	case Partner:
		return applyPartner(buf, e)
	case CartAwaitingPayment:
		return appendEvents(buf, e.records())
	case TransactionConfirmation:
		return appendEvents(buf, e.records())
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalid, ev.Kind())
	}
}

// pageName joins chapters and label the way the collector splits them
func pageName(chapters []string, label string) string {
	name := ""
	for _, c := range chapters {
		if c == "" {
			continue
		}
		name += c + param.DefaultSeparator
	}
	return name + label
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

type setter struct {
	buf *param.Buffer
	err error
}

func (s *setter) set(name string, value param.Closure, opts param.Options) {
	if s.err != nil {
		return
	}
	s.err = s.buf.Set(param.Volatile, name, value, opts)
}
