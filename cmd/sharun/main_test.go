package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/xplshn/sharun/pkg/launch"
	"github.com/xplshn/sharun/pkg/libpath"
	"github.com/xplshn/sharun/pkg/paths"
)

func newBundle(t *testing.T) *launch.Context {
	t.Helper()
	root, err := paths.Canonicalize(t.TempDir())
	require.NoError(t, err)

	for _, f := range []string{
		"shared/lib/libc.so.6",
		"shared/lib/dri/iris_dri.so",
		"shared/lib32/libc.so.6",
		"shared/lib32/gconv/UTF-16.so",
	} {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, launch.SelfName), []byte("launcher"), 0755))
	for _, name := range []string{"htop", "curl"} {
		require.NoError(t, os.Symlink("../"+launch.SelfName, filepath.Join(root, "bin", name)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "README"), nil, 0644))

	c, err := launch.NewContext(filepath.Join(root, launch.SelfName))
	require.NoError(t, err)
	return c
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec), "expected an exit code, got %v", err)
	return ec.ExitCode()
}

func TestRunSelfCommands(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stdout string
		code   int
	}{
		{"version", []string{"-v"}, "v" + version + "\n", 0},
		{"version long", []string{"--version"}, "v" + version + "\n", 0},
		{"help", []string{"-h"}, usage, 0},
		{"list", nil, "curl\nhtop\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBundle(t)
			var out bytes.Buffer
			err := run(context.Background(), c, append([]string{c.Self}, tt.args...), &out)
			assert.Equal(t, tt.code, exitCode(t, err))
			assert.Equal(t, tt.stdout, out.String())
		})
	}
}

func TestRunGenLibPath(t *testing.T) {
	c := newBundle(t)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), c, []string{c.Self, "--gen-lib-path"}, &out))
	assert.Empty(t, out.String())

	lib, err := libpath.Load(c.SharedLib)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(c.SharedLib, "dri")}, lib.Dirs)

	lib32, err := libpath.Load(c.SharedLib32)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(c.SharedLib32, "gconv")}, lib32.Dirs)
}

func TestRunLib4binExitCode(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	c := newBundle(t)
	var out bytes.Buffer

	err := run(context.Background(), c, []string{c.Self, "lib4bin", "--bogus"}, &out)
	assert.Equal(t, 1, exitCode(t, err))

	err = run(context.Background(), c, []string{c.Self, "l", "--help"}, &out)
	assert.Equal(t, 0, exitCode(t, err))
}
