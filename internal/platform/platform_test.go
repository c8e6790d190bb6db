package platform

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetAdminCache(check func() (bool, error)) {
	adminOnce = sync.Once{}
	adminValue = false
	adminCheck = check
}

func TestDetectOS(t *testing.T) {
	assert.Equal(t, OSWindows, detectOS("windows"))
	assert.Equal(t, OSMacOS, detectOS("darwin"))
	assert.Equal(t, OSLinux, detectOS("linux"))
	assert.Equal(t, OSLinux, detectOS("freebsd"))
}

func TestDownloadKey(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{OS: OSWindows, Arch: "amd64", Is64Bit: true}, "win64"},
		{Info{OS: OSWindows, Arch: "386", Is64Bit: false}, "win"},
		{Info{OS: OSWindows, Arch: "arm64", Is64Bit: true}, "winArm64"},
		{Info{OS: OSMacOS, Arch: "amd64", Is64Bit: true}, "osx"},
		{Info{OS: OSMacOS, Arch: "arm64", Is64Bit: true}, "osxArm64"},
		{Info{OS: OSLinux, Arch: "amd64", Is64Bit: true}, "linux64"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.info.DownloadKey(), tt.info.String())
	}
}

func TestIsAdminFailsSafe(t *testing.T) {
	original := adminCheck
	defer resetAdminCache(original)

	resetAdminCache(func() (bool, error) { return true, errors.New("introspection failed") })
	assert.False(t, IsAdmin())

	resetAdminCache(func() (bool, error) { panic("no token") })
	assert.False(t, IsAdmin())

	resetAdminCache(func() (bool, error) { return true, nil })
	assert.True(t, IsAdmin())
}

func TestIsAdminIsCached(t *testing.T) {
	original := adminCheck
	defer resetAdminCache(original)

	calls := 0
	resetAdminCache(func() (bool, error) {
		calls++
		return false, nil
	})
	IsAdmin()
	IsAdmin()
	assert.Equal(t, 1, calls)
}
