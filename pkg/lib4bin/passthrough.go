// Package lib4bin builds sharun bundles: the bash helper shipped inside the
// launcher and a native Go packer.
package lib4bin

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/klauspost/compress/zstd"

	"github.com/xplshn/sharun/pkg/environ"
)

//go:generate zstd -19 -q -f lib4bin.sh -o lib4bin.sh.zst

//go:embed lib4bin.sh.zst
var scriptZst []byte

// Script returns the embedded helper script.
func Script() ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(scriptZst))
	if err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	defer decoder.Close()

	script, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress lib4bin: %w", err)
	}
	return script, nil
}

// Passthrough feeds the helper script to `bash -s -- args...` and waits for
// it. SHARUN is set to the launcher and binDir is put on PATH. The script's
// exit status is returned.
func Passthrough(ctx context.Context, sharun, binDir string, args, inherited []string) (int, error) {
	script, err := Script()
	if err != nil {
		return 1, err
	}

	env := environ.New(inherited)
	env.Prepend("PATH", binDir)
	env.Set("SHARUN", sharun)

	cmd := exec.CommandContext(ctx, "bash", append([]string{"-s", "--"}, args...)...)
	cmd.Env = env.Environ()
	cmd.Stdin = bytes.NewReader(script)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code >= 0 {
				return code, nil
			}
			return 1, nil
		}
		return 1, fmt.Errorf("failed to run bash: %w", err)
	}
	return 0, nil
}
