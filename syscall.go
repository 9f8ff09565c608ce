// syscall.go - guest ECALL dispatch onto the host's Linux syscall surface
//
// Syscall numbers below are the riscv64 Linux ABI, which differs from the
// host's own numbering - see https://jborza.com/post/2021-05-11-riscv-linux-syscalls/.
// The argument registers line up with the host's (a0-a2), so each case below
// is a thin reinterpretation of guest register/memory state into the shapes
// golang.org/x/sys/unix expects, not a translation of calling convention.
package main

import (
	"io"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sysClose       = 57
	sysRead        = 63
	sysWrite       = 64
	sysNewFstatAt  = 80
	sysExit        = 93
	sysBrk         = 214
	sysOpen        = 430
)

// FdTable lets the embedding CLI (and tests) redirect a guest file
// descriptor's read or write traffic to a host io.Reader/io.Writer instead
// of letting it fall through to the real file descriptor - the test harness
// hook the reference engine calls capture_filenos.
type FdTable struct {
	writers map[int]io.Writer
	readers map[int]io.Reader
}

func NewFdTable() *FdTable {
	return &FdTable{writers: map[int]io.Writer{}, readers: map[int]io.Reader{}}
}

func (f *FdTable) CaptureWrite(fd int, w io.Writer) { f.writers[fd] = w }
func (f *FdTable) CaptureRead(fd int, r io.Reader)  { f.readers[fd] = r }

// ECall services the instruction the guest used to request a syscall: a7
// names the syscall, a0-a2 carry its first three arguments, matching the
// riscv64 Linux ABI's argument registers.
func (c *CPU) ECall(mem *Memory) error {
	a0 := int(c.GetReg(RegA0))
	a1 := int(c.GetReg(RegA1))
	a2 := int(c.GetReg(RegA2))
	buf := mem.Bytes()

	var ret int64
	var errno error

	switch c.GetReg(RegA7) {
	case sysClose:
		delete(c.Fds.writers, a0)
		delete(c.Fds.readers, a0)
		errno = unix.Close(a0)

	case sysRead:
		if r, ok := c.Fds.readers[a0]; ok {
			n, err := r.Read(buf[a1 : a1+a2])
			if err != nil && err != io.EOF {
				return IOError{err}
			}
			ret = int64(n)
		} else {
			n, err := unix.Read(a0, buf[a1:a1+a2])
			ret, errno = int64(n), err
		}

	case sysWrite:
		if w, ok := c.Fds.writers[a0]; ok {
			n, err := w.Write(buf[a1 : a1+a2])
			if err != nil {
				return IOError{err}
			}
			ret = int64(n)
		} else {
			n, err := unix.Write(a0, buf[a1:a1+a2])
			ret, errno = int64(n), err
		}

	case sysNewFstatAt:
		var st unix.Stat_t
		if err := unix.Fstat(a0, &st); err != nil {
			errno = err
			break
		}
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&st)), int(unsafe.Sizeof(st)))
		if err := mem.CopyBulk(uint64(a1), raw); err != nil {
			return err
		}

	case sysExit:
		return Exit{Code: int32(a0)}

	case sysBrk:
		// BRK is a no-op here: guest programs that rely on growing the heap
		// via brk rather than a fixed arena are out of scope.
		ret = 0

	case sysOpen:
		path := cString(buf, a0)
		fd, err := unix.Open(path, a1, 0o644)
		ret, errno = int64(fd), err

	default:
		return Unimplemented{"syscall not recognised by this adapter"}
	}

	if errno != nil {
		c.SetReg(RegA0, uint64(int64(-errnoOf(errno))))
	} else {
		c.SetReg(RegA0, uint64(ret))
	}
	return nil
}

func errnoOf(err error) int {
	if errno, ok := err.(unix.Errno); ok {
		return int(errno)
	}
	return int(unix.EIO)
}

// cString reads a NUL-terminated string out of guest memory starting at
// addr, used for the path argument to openat.
func cString(mem []byte, addr int) string {
	end := addr
	for end < len(mem) && mem[end] != 0 {
		end++
	}
	return string(mem[addr:end])
}
