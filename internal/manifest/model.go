// Package manifest models the declarative description of a developer
// environment: which JDK, Android packages, .NET SDKs, packs and workloads
// are required, and where to get them.
//
// A Manifest is loaded once per run and treated as immutable afterwards.
package manifest

// Manifest is the root document.
type Manifest struct {
	Check *Check `json:"check" yaml:"check"`
}

// Check holds the requirements the doctor verifies.
type Check struct {
	// ToolVersion is the newest envdoctor release known to the manifest
	// author. Older builds warn.
	ToolVersion string   `json:"toolVersion,omitempty" yaml:"toolVersion,omitempty"`
	OpenJdk     *OpenJdk `json:"openjdk,omitempty" yaml:"openjdk,omitempty"`
	Android     *Android `json:"android,omitempty" yaml:"android,omitempty"`
	DotNet      *DotNet  `json:"dotnet,omitempty" yaml:"dotnet,omitempty"`
}

type OpenJdk struct {
	MinimumVersion string `json:"minimumVersion" yaml:"minimumVersion"`
	ExactVersion   string `json:"exactVersion,omitempty" yaml:"exactVersion,omitempty"`
}

type Android struct {
	Packages []AndroidPackage `json:"packages" yaml:"packages"`
}

type DotNet struct {
	Sdks []DotNetSdk `json:"sdks" yaml:"sdks"`
}

// DotNetSdkPack is a targeting or runtime pack expected under
// <dotnet root>/packs/<id>/<version>.
type DotNetSdkPack struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
}

// DotNetWorkload is an installable unit layered on top of an SDK.
type DotNetWorkload struct {
	PackageID string `json:"packageId" yaml:"packageId"`
	ID        string `json:"id" yaml:"id"`
	Version   string `json:"version" yaml:"version"`
}
