package event

import "github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"

// Screen is a page view
type Screen struct {
	Name     string
	Chapters []string
	Level2   int
}

func (Screen) Kind() Kind { return KindScreen }
func (Screen) sealed() {}

// Validate checks the screen has a name and a positive level 2, if any
func (s Screen) Validate() error {
	if s.Name == "" {
		return invalid("screen name is required")
	}
	if len(s.Chapters) > 3 {
		return invalid("at most 3 chapters, got %d", len(s.Chapters))
	}
	if s.Level2 < 0 {
		return invalid("level 2 must be positive, got %d", s.Level2)
	}
	return nil
}

func applyScreen(buf *param.Buffer, s Screen) error {
	w := &setter{buf: buf}
	w.set(ParamType, param.Static("screen"), param.Options{})
	w.set(ParamPage, param.Static(pageName(s.Chapters, s.Name)), param.Options{})
	if s.Level2 > 0 {
		w.set(ParamLevel2, param.Int(int64(s.Level2)), param.Options{Type: param.TypeNumber})
	}
	return w.err
}
