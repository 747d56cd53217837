//go:build unix

package rules

import (
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

func osVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		log.Debug("uname", "err", err)
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}
