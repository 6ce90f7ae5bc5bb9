//go:build !unix

package fabric

import "syscall"

// reuseAddrControl is a no-op outside Unix: SO_REUSEADDR is a Unix-only
// socket option (SPEC_FULL.md §4.16).
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
