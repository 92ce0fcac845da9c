package event

import (
	"regexp"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

var partnerName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Partner forwards partner data (for instance NuggAd) inside the stc parameter.
// Several partners in one hit are merged into a single JSON object.
type Partner struct {
	Name string
	Data map[string]any
}

func (Partner) Kind() Kind { return KindPartner }
func (Partner) sealed() {}

func (p Partner) Validate() error {
	if !partnerName.MatchString(p.Name) {
		return invalid("partner name %q must be lowercase letters, digits or underscores", p.Name)
	}
	return nil
}

func applyPartner(buf *param.Buffer, p Partner) error {
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	return buf.Append(param.Volatile, ParamJSON, param.JSON(map[string]any{p.Name: data}), param.Options{
		Type:   param.TypeJSON,
		Encode: true,
	})
}
