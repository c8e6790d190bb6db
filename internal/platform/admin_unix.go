//go:build unix

package platform

import "golang.org/x/sys/unix"

func checkAdmin() (bool, error) {
	return unix.Geteuid() == 0, nil
}
