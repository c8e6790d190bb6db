package manifest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.lsp.dev/uri"

	"envdoctor/internal/platform"
)

// ErrNoDownloadURL is returned when the manifest has no URL for a platform.
var ErrNoDownloadURL = errors.New("no download url for platform")

// VersionPlaceholder in a URL is replaced with the SDK version.
const VersionPlaceholder = "{version}"

// Urls maps a platform key (see platform.Info.DownloadKey) to a download URL.
type Urls map[string]string

// Keys returns the platform keys in sorted order.
func (u Urls) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type DotNetSdk struct {
	Urls                   Urls             `json:"urls,omitempty" yaml:"urls,omitempty"`
	Version                string           `json:"version" yaml:"version"`
	RequireExact           bool             `json:"requireExact,omitempty" yaml:"requireExact,omitempty"`
	Packs                  []DotNetSdkPack  `json:"packs,omitempty" yaml:"packs,omitempty"`
	Workloads              []DotNetWorkload `json:"workloads,omitempty" yaml:"workloads,omitempty"`
	PackageSources         []string         `json:"packageSources,omitempty" yaml:"packageSources,omitempty"`
	EnableWorkloadResolver bool             `json:"enableWorkloadResolver,omitempty" yaml:"enableWorkloadResolver,omitempty"`
}

// ResolveURL returns the download URL of the SDK for platformKey. A missing
// key or an unparsable URL is an error for this SDK only.
func (s *DotNetSdk) ResolveURL(platformKey string) (uri.URI, error) {
	raw, ok := s.Urls[platformKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("sdk %s: %w %q (have: %s)",
			s.Version, ErrNoDownloadURL, platformKey, strings.Join(s.Urls.Keys(), ", "))
	}

	raw = strings.ReplaceAll(raw, VersionPlaceholder, s.Version)
	u, err := uri.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("sdk %s: invalid download url %q: %w", s.Version, raw, err)
	}
	return u, nil
}

// URL resolves the download URL for the running process.
func (s *DotNetSdk) URL() (uri.URI, error) {
	return s.ResolveURL(platform.DownloadKey())
}
