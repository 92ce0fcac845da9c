package techctx

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

func TestRegister(t *testing.T) {
	buf := param.NewBuffer()
	c := NewCollector("2.1.0")
	c.clock = func() time.Time { return time.Date(2026, 3, 10, 7, 5, 9, 0, time.UTC) }

	require.NoError(t, c.Register(buf))
	require.Equal(t, 0, buf.Len(param.Volatile))

	got := map[string]string{}
	for _, p := range buf.Flatten(param.Persistent) {
		got[p.Name] = p.Value
	}

	require.Equal(t, runtime.GOOS, got[ParamOS])
	require.Equal(t, runtime.GOARCH, got[ParamArch])
	require.NotEmpty(t, got[ParamRuntime])
	require.NotEmpty(t, got[ParamCPUCount])
	require.NotEmpty(t, got[ParamGoroutines])
	require.Equal(t, "07x05x09", got[ParamLocalHour])
	require.Equal(t, "%5B2.1.0%5D", got[ParamAppVersion])
}

func TestLocalHourIsReadAtFlatten(t *testing.T) {
	buf := param.NewBuffer()
	c := NewCollector("")
	now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	c.clock = func() time.Time { return now }
	require.NoError(t, c.Register(buf))

	_, ok := buf.Get(param.Persistent, ParamAppVersion)
	require.False(t, ok)

	hour := func() string {
		for _, p := range buf.Flatten(param.Persistent) {
			if p.Name == ParamLocalHour {
				return p.Value
			}
		}
		return ""
	}
	require.Equal(t, "07x00x00", hour())

	now = now.Add(90 * time.Minute)
	require.Equal(t, "08x30x00", hour())
}

func TestUnregister(t *testing.T) {
	buf := param.NewBuffer()
	require.NoError(t, buf.Set(param.Persistent, "s", param.Static("1"), param.Options{}))

	c := NewCollector("1")
	require.NoError(t, c.Register(buf))
	c.Unregister(buf)

	require.Equal(t, []string{"s"}, buf.Names(param.Persistent))
}
