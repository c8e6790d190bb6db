package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"go.lsp.dev/uri"

	"envdoctor/internal/common"
)

// maxManifestSize bounds remote manifests.
const maxManifestSize = 8 << 20

// Load reads a manifest from a local path, a file:// URI, or an http(s) URL.
func Load(ctx context.Context, source string) (*Manifest, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("manifest source is required")
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(source, uri.HTTPScheme+"://"), strings.HasPrefix(source, uri.HTTPSScheme+"://"):
		data, err = fetch(ctx, source)
	case strings.HasPrefix(source, uri.FileScheme+"://"):
		data, err = os.ReadFile(uri.URI(source).Filename())
	default:
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", source, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", source, err)
	}
	common.DoctorLogger.Debug("Loaded manifest from %s", source)
	return m, nil
}

// Parse decodes JSON manifest text. Comments and trailing commas are allowed.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
}

// Validate checks the fields every consumer relies on. Version strings of
// workloads are parsed later by the remediation that needs them.
func (m *Manifest) Validate() error {
	if m.Check == nil {
		return fmt.Errorf("check section is required")
	}
	c := m.Check

	if c.OpenJdk != nil && strings.TrimSpace(c.OpenJdk.MinimumVersion) == "" {
		return fmt.Errorf("openjdk.minimumVersion is required")
	}

	if c.Android != nil {
		for i, pkg := range c.Android.Packages {
			for _, cand := range pkg.Candidates() {
				if strings.TrimSpace(cand.Path) == "" {
					return fmt.Errorf("android.packages[%d]: path is required", i)
				}
			}
		}
	}

	if c.DotNet != nil {
		for i, sdk := range c.DotNet.Sdks {
			if strings.TrimSpace(sdk.Version) == "" {
				return fmt.Errorf("dotnet.sdks[%d]: version is required", i)
			}
			for j, w := range sdk.Workloads {
				if w.ID == "" || w.PackageID == "" {
					return fmt.Errorf("dotnet.sdks[%d].workloads[%d]: id and packageId are required", i, j)
				}
			}
			for j, p := range sdk.Packs {
				if p.ID == "" || p.Version == "" {
					return fmt.Errorf("dotnet.sdks[%d].packs[%d]: id and version are required", i, j)
				}
			}
		}
	}
	return nil
}
