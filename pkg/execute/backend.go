package execute

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/liamg/memit"
	"golang.org/x/sys/unix"
)

// Backend replaces the running process image.
type Backend interface {
	Exec(path string, argv, envv []string) error
}

// SyscallBackend is a plain execve(2) of path.
type SyscallBackend struct{}

func (SyscallBackend) Exec(path string, argv, envv []string) error {
	return unix.Exec(path, argv, envv)
}

// MemfdBackend copies the program at path into an anonymous memory file and
// execs that file descriptor with execveat(2). The program runs without its
// path ever reaching the kernel, so /proc/self/exe and the auxiliary vector
// describe the memory file.
type MemfdBackend struct{}

func (MemfdBackend) Exec(path string, argv, envv []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, mem, err := memit.Command(f)
	if err != nil {
		return fmt.Errorf("load %s into memory: %w", path, err)
	}
	defer mem.Close()

	argvp, err := cStrings(argv)
	if err != nil {
		return err
	}
	envvp, err := cStrings(envv)
	if err != nil {
		return err
	}
	empty, err := unix.BytePtrFromString("")
	if err != nil {
		return err
	}

	_, _, errno := unix.Syscall6(unix.SYS_EXECVEAT,
		mem.Fd(),
		uintptr(unsafe.Pointer(empty)),
		uintptr(unsafe.Pointer(&argvp[0])),
		uintptr(unsafe.Pointer(&envvp[0])),
		unix.AT_EMPTY_PATH,
		0)
	runtime.KeepAlive(argvp)
	runtime.KeepAlive(envvp)
	return errno
}

var errNulInString = errors.New("string contains NUL byte")

// cStrings builds a NULL-terminated array of NUL-terminated strings.
func cStrings(ss []string) ([]*byte, error) {
	out := make([]*byte, len(ss)+1)
	for i, s := range ss {
		p, err := unix.BytePtrFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, errNulInString)
		}
		out[i] = p
	}
	return out, nil
}
