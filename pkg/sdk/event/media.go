package event

import (
	"strconv"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Broadcast mode of a medium
type Broadcast string

const (
	BroadcastClip Broadcast = "clip"
	BroadcastLive Broadcast = "live"
)

// Action performed on a medium
type Action string

const (
	ActionPlay     Action = "play"
	ActionPause    Action = "pause"
	ActionStop     Action = "stop"
	ActionRefresh  Action = "refresh"
	ActionMove     Action = "move"
	ActionInfo     Action = "info"
	ActionShare    Action = "share"
	ActionEmail    Action = "email"
	ActionFavor    Action = "favor"
	ActionDownload Action = "download"
)

var knownActions = map[Action]bool{
	ActionPlay: true, ActionPause: true, ActionStop: true, ActionRefresh: true,
	ActionMove: true, ActionInfo: true, ActionShare: true, ActionEmail: true,
	ActionFavor: true, ActionDownload: true,
}

// Media is an action on an audio, video or animation medium
type Media struct {
	Type          string
	Label         string
	Themes        []string
	Level2        int
	Duration      int
	Player        int
	Embedded      bool
	Broadcast     Broadcast
	Action        Action
	WebDomain     string
	LinkedContent string
}

func (Media) Kind() Kind { return KindMedia }
func (Media) sealed() {}

// Validate checks the medium is complete enough to be measured
func (m Media) Validate() error {
	switch {
	case m.Label == "":
		return invalid("media label is required")
	case m.Type == "":
		return invalid("media type is required")
	case len(m.Themes) > 3:
		return invalid("at most 3 themes, got %d", len(m.Themes))
	case m.Player < 1:
		return invalid("player id must be positive, got %d", m.Player)
	case m.Level2 < 0:
		return invalid("level 2 must be positive, got %d", m.Level2)
	case m.Duration < 0:
		return invalid("duration must be positive, got %d", m.Duration)
	case m.Broadcast != BroadcastClip && m.Broadcast != BroadcastLive:
		return invalid("unknown broadcast mode %q", m.Broadcast)
	case m.Broadcast == BroadcastLive && m.Duration > 0:
		return invalid("a live medium has no duration")
	case m.Action != "" && !knownActions[m.Action]:
		return invalid("unknown media action %q", m.Action)
	}
	return nil
}

func applyMedia(buf *param.Buffer, m Media) error {
	embedding := "int"
	if m.Embedded {
		embedding = "ext"
	}

	w := &setter{buf: buf}
	w.set(ParamType, param.Static(m.Type), param.Options{})
	w.set(ParamPage, param.Static(pageName(m.Themes, m.Label)), param.Options{})
	if m.Action != "" {
		w.set(ParamAction, param.Static(string(m.Action)), param.Options{})
	}
	w.set(ParamBroadcast, param.Static(string(m.Broadcast)), param.Options{})
	w.set(ParamPlayer, param.Static(strconv.Itoa(m.Player)), param.Options{})
	w.set(ParamEmbedding, param.Static(embedding), param.Options{})
	if m.Level2 > 0 {
		w.set(ParamLevel2, param.Int(int64(m.Level2)), param.Options{Type: param.TypeNumber})
	}
	if m.Broadcast == BroadcastClip && m.Duration > 0 {
		w.set(ParamDuration, param.Int(int64(m.Duration)), param.Options{Type: param.TypeNumber})
	}
	if m.WebDomain != "" {
		w.set(ParamWebDomain, param.Static(m.WebDomain), param.Options{Encode: true})
	}
	if m.LinkedContent != "" {
		w.set(ParamLinkedContent, param.Static(m.LinkedContent), param.Options{Encode: true})
	}
	return w.err
}

// MediaBuilder stages a Media. Build validates the result.
type MediaBuilder struct {
	m Media
}

// NewMedia starts a clip played by player
func NewMedia(player int) *MediaBuilder {
	return &MediaBuilder{m: Media{Player: player, Broadcast: BroadcastClip}}
}

// NewLiveMedia starts a live medium played by player
func NewLiveMedia(player int) *MediaBuilder {
	return &MediaBuilder{m: Media{Player: player, Broadcast: BroadcastLive}}
}

func (b *MediaBuilder) Type(t string) *MediaBuilder {
	b.m.Type = t
	return b
}

func (b *MediaBuilder) Label(l string) *MediaBuilder {
	b.m.Label = l
	return b
}

func (b *MediaBuilder) Level2(n int) *MediaBuilder {
	b.m.Level2 = n
	return b
}

func (b *MediaBuilder) Duration(secs int) *MediaBuilder {
	b.m.Duration = secs
	return b
}

func (b *MediaBuilder) Embedded(e bool) *MediaBuilder {
	b.m.Embedded = e
	return b
}

func (b *MediaBuilder) Action(a Action) *MediaBuilder {
	b.m.Action = a
	return b
}

func (b *MediaBuilder) WebDomain(d string) *MediaBuilder {
	b.m.WebDomain = d
	return b
}

func (b *MediaBuilder) LinkedContent(c string) *MediaBuilder {
	b.m.LinkedContent = c
	return b
}

// Themes sets up to three themes, outermost first
func (b *MediaBuilder) Themes(themes ...string) *MediaBuilder {
	b.m.Themes = append([]string(nil), themes...)
	return b
}

// Build returns the staged Media once it validates
func (b *MediaBuilder) Build() (Media, error) {
	m := b.m
	m.Themes = append([]string(nil), b.m.Themes...)
	if err := m.Validate(); err != nil {
		return Media{}, err
	}
	return m, nil
}
