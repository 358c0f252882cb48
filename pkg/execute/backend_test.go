package execute

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memfdStageEnv = "SHARUN_TEST_MEMFD_STAGE"
	memfdCheckEnv = "SHARUN_TEST_MEMFD_CHECK"
	memfdRun      = "-test.run=^TestMemfdBackend$"
)

// TestMemfdBackend re-executes the test binary twice: the first child
// replaces itself through MemfdBackend, the second reports the argv[0] and
// environment it was started with.
func TestMemfdBackend(t *testing.T) {
	switch os.Getenv(memfdStageEnv) {
	case "exec":
		self, err := os.Executable()
		if err == nil {
			err = MemfdBackend{}.Exec(self,
				[]string{"spoofed", memfdRun},
				[]string{memfdStageEnv + "=report", memfdCheckEnv + "=ok"})
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	case "report":
		fmt.Printf("argv0=%s env=%s\n", os.Args[0], os.Getenv(memfdCheckEnv))
		os.Exit(0)
	}

	self, err := os.Executable()
	require.NoError(t, err)

	cmd := exec.Command(self, memfdRun)
	cmd.Env = append(os.Environ(), memfdStageEnv+"=exec")
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.Fatalf("child failed: %v: %s", err, exitErr.Stderr)
	}
	require.NoError(t, err)
	assert.Equal(t, "argv0=spoofed env=ok\n", string(out))
}

func TestMemfdBackendMissingProgram(t *testing.T) {
	err := MemfdBackend{}.Exec("/nonexistent/ld.so", []string{"ld.so"}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
