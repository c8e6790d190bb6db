//go:build !unix && !windows

package platform

import "fmt"

func checkAdmin() (bool, error) {
	return false, fmt.Errorf("privilege check not supported on this platform")
}
