package common

import "os"

const trueStr = "true"

// IsCI reports a continuous integration environment, where progress output
// is suppressed.
func IsCI() bool {
	return os.Getenv("CI") == trueStr || os.Getenv("GITHUB_ACTIONS") == trueStr
}

// FirstNonEmpty returns the first argument that is not the empty string.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
