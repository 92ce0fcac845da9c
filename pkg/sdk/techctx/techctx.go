// Package techctx contributes the technical context of the host to every hit.
package techctx

import (
	"runtime"
	"strconv"
	"time"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Hit parameter names
const (
	ParamOS         = "os"
	ParamArch       = "arch"
	ParamRuntime    = "rt"
	ParamCPUCount   = "cpu"
	ParamGoroutines = "gr"
	ParamAppVersion = "apvr"
	ParamLocalHour  = "hl"
)

type entry struct {
	name  string
	value param.Closure
	opts  param.Options
}

// Collector sets persistent, lazily evaluated context parameters
type Collector struct {
	appVersion string
	clock      func() time.Time
}

// NewCollector creates a collector for an app running version appVersion
func NewCollector(appVersion string) *Collector {
	return &Collector{
		appVersion: appVersion,
		clock:      time.Now,
	}
}

// Register adds the context parameters to the persistent collection of buf.
// Values are read when a hit is built, not now.
func (c *Collector) Register(buf *param.Buffer) error {
	for _, e := range c.entries() {
		if err := buf.Set(param.Persistent, e.name, e.value, e.opts); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes every parameter Register added
func (c *Collector) Unregister(buf *param.Buffer) {
	for _, e := range c.entries() {
		buf.Unset(param.Persistent, e.name)
	}
}

func (c *Collector) entries() []entry {
	number := param.Options{Type: param.TypeNumber}
	entries := []entry{
		{ParamOS, param.Static(runtime.GOOS), param.Options{}},
		{ParamArch, param.Static(runtime.GOARCH), param.Options{}},
		{ParamRuntime, param.Static(runtime.Version()), param.Options{Encode: true}},
		{ParamCPUCount, param.Lazy(func() string { return strconv.Itoa(runtime.NumCPU()) }), number},
		{ParamGoroutines, param.Lazy(func() string { return strconv.Itoa(runtime.NumGoroutine()) }), number},
		{ParamLocalHour, param.Lazy(c.localHour), param.Options{}},
	}
	if c.appVersion != "" {
		entries = append(entries, entry{ParamAppVersion, param.Static("[" + c.appVersion + "]"), param.Options{Encode: true}})
	}
	return entries
}

// localHour formats the wall clock as HHxmmxss
func (c *Collector) localHour() string {
	return c.clock().Format("15x04x05")
}
