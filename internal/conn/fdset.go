//go:build linux

package conn

import "golang.org/x/sys/unix"

// fdSetZero and fdSetSet manipulate unix.FdSet's fixed-size Bits array
// directly, since x/sys/unix doesn't expose FD_ZERO/FD_SET helpers (this
// package only ever needs a single fd in the set, matching
// vs_server_accept's FD_ZERO/FD_SET(fd) on its one listening socket).
func fdSetZero(set *unix.FdSet) {
	for i := range set.Bits {
		set.Bits[i] = 0
	}
}

func fdSetSet(set *unix.FdSet, fd int) {
	idx := fd / 64
	bit := uint(fd % 64)
	set.Bits[idx] |= 1 << bit
}
