package solutions

import (
	"context"
	"fmt"
	"strings"

	"envdoctor/internal/android"
	"envdoctor/internal/doctor"
	doctorerrors "envdoctor/internal/errors"
	"envdoctor/internal/platform"
)

// Enough answers for every license prompt sdkmanager asks.
var licenseAnswers = strings.Repeat("y\n", 32)

// AndroidLicensesSolution accepts the SDK licenses.
type AndroidLicensesSolution struct {
	SdkRoot string
	Runner  platform.Runner
}

func (s *AndroidLicensesSolution) Key() string {
	return doctor.SolutionKey("AndroidLicenses", s.SdkRoot)
}

func (s *AndroidLicensesSolution) Dependencies() []doctor.Solution { return nil }

func (s *AndroidLicensesSolution) Implement(ctx context.Context, state *doctor.SharedState, progress doctor.Progress) error {
	progress.ReportStatus("Accepting Android SDK licenses...")
	return runSdkManager(ctx, s.Key(), s.Runner, s.SdkRoot, state, "--licenses")
}

// AndroidPackagesInstallSolution installs SDK packages with sdkmanager
// after the licenses have been accepted.
type AndroidPackagesInstallSolution struct {
	SdkRoot  string
	Packages []string
	Runner   platform.Runner
}

func (s *AndroidPackagesInstallSolution) Key() string {
	return doctor.SolutionKey("AndroidPackagesInstall", s.SdkRoot, s.Packages)
}

func (s *AndroidPackagesInstallSolution) Dependencies() []doctor.Solution {
	return []doctor.Solution{&AndroidLicensesSolution{SdkRoot: s.SdkRoot, Runner: s.Runner}}
}

func (s *AndroidPackagesInstallSolution) Implement(ctx context.Context, state *doctor.SharedState, progress doctor.Progress) error {
	progress.ReportStatus(fmt.Sprintf("Installing Android packages: %s...", strings.Join(s.Packages, ", ")))
	args := append([]string{"--install"}, s.Packages...)
	if err := runSdkManager(ctx, s.Key(), s.Runner, s.SdkRoot, state, args...); err != nil {
		return err
	}
	progress.ReportStatus("Android packages installed.")
	return nil
}

func runSdkManager(ctx context.Context, key string, runner platform.Runner, root string, state *doctor.SharedState, args ...string) error {
	sdk := android.Sdk{Root: root}
	sdkmanager, ok := sdk.SdkManager()
	if !ok {
		return doctorerrors.NewRemediationError(key, "sdkmanager not found in "+root, nil)
	}

	env := map[string]string{android.SdkRootVariable: root}
	if javaHome, ok := state.EnvironmentVariable("JAVA_HOME"); ok {
		env["JAVA_HOME"] = javaHome
	}

	_, err := runner.Run(ctx, platform.Command{
		Path:  sdkmanager,
		Args:  append([]string{"--sdk_root=" + root}, args...),
		Env:   env,
		Stdin: licenseAnswers,
	})
	if err != nil {
		return doctorerrors.NewRemediationError(key, "sdkmanager "+args[0]+" failed", err)
	}
	return nil
}
