package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIsCached(t *testing.T) {
	p := Detect()
	assert.NotEmpty(t, p)
	assert.Equal(t, p, Detect())
	if runtime.GOOS == "darwin" {
		assert.Equal(t, PlatformMacOS, p)
	}
}

func TestDetectPlatformByGOOS(t *testing.T) {
	assert.Equal(t, PlatformMacOS, detectPlatform("darwin"))
	assert.Equal(t, PlatformWindows, detectPlatform("windows"))
	assert.Equal(t, PlatformUnknown, detectPlatform("plan9"))
}

func withProcVersion(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "version")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	orig := procVersionPath
	procVersionPath = path
	t.Cleanup(func() { procVersionPath = orig })
}

func TestDetectLinuxOrWSL(t *testing.T) {
	t.Setenv("WSL_DISTRO_NAME", "")

	withProcVersion(t, "Linux version 6.8.0-45-generic (buildd@lcy02)")
	assert.Equal(t, PlatformLinux, detectLinuxOrWSL())

	withProcVersion(t, "Linux version 5.15.153.1-microsoft-standard-WSL2")
	assert.Equal(t, PlatformWSL2, detectLinuxOrWSL())
}

func TestDetectWSLFromDistroName(t *testing.T) {
	t.Setenv("WSL_DISTRO_NAME", "Ubuntu")
	withProcVersion(t, "Linux version 4.4.0-19041-Microsoft")
	assert.Equal(t, PlatformWSL1, detectLinuxOrWSL())
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		platform Platform
		expected string
	}{
		{PlatformMacOS, "macOS"},
		{PlatformLinux, "Linux"},
		{PlatformWSL1, "WSL1"},
		{PlatformWSL2, "WSL2"},
		{PlatformWindows, "Windows"},
		{PlatformUnknown, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.platform.String())
	}
}

func TestIsWSL(t *testing.T) {
	assert.True(t, PlatformWSL1.IsWSL())
	assert.True(t, PlatformWSL2.IsWSL())
	assert.False(t, PlatformLinux.IsWSL())
}
