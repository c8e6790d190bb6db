package checkups

import (
	"fmt"

	"envdoctor/internal/doctor"
	"envdoctor/internal/manifest"
)

// FromManifest instantiates the checkups m asks for, in a stable order.
// toolVersion is the running build's version.
func FromManifest(m *manifest.Manifest, env Environment, toolVersion string) ([]doctor.Checkup, error) {
	if m == nil || m.Check == nil {
		return nil, fmt.Errorf("manifest has no check section")
	}
	check := m.Check
	var list []doctor.Checkup

	if check.ToolVersion != "" {
		list = append(list, &ToolVersionCheckup{Required: check.ToolVersion, Current: toolVersion})
	}

	if check.OpenJdk != nil {
		jdk, err := NewOpenJdkCheckup(check.OpenJdk.MinimumVersion, check.OpenJdk.ExactVersion, env)
		if err != nil {
			return nil, err
		}
		list = append(list, jdk)
	}

	if check.Android != nil {
		list = append(list, &AndroidSdkCheckup{Locator: env.androidLocator()})
		if len(check.Android.Packages) > 0 {
			list = append(list, &AndroidPackagesCheckup{Packages: check.Android.Packages, Env: env})
		}
	}

	if check.DotNet != nil && len(check.DotNet.Sdks) > 0 {
		list = append(list, &DotNetSdkCheckup{Sdks: check.DotNet.Sdks, Env: env})
		for _, sdk := range check.DotNet.Sdks {
			if len(sdk.Workloads) > 0 || sdk.EnableWorkloadResolver {
				list = append(list, &DotNetWorkloadsCheckup{Sdk: sdk, Env: env})
			}
			if len(sdk.Packs) > 0 {
				list = append(list, &DotNetPacksCheckup{Sdk: sdk})
			}
		}
	}
	return list, nil
}
