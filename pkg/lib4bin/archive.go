package lib4bin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/mholt/archives"
)

// Archive packs dir into a zstd-compressed tarball at output. Entries are
// stored under dir's base name and symlinks are kept as links.
func Archive(ctx context.Context, dir, output string) error {
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		dir: filepath.Base(filepath.Clean(dir)),
	})
	if err != nil {
		return fmt.Errorf("collect %s: %w", dir, err)
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	format := archives.CompressedArchive{
		Compression: archives.Zstd{
			EncoderOptions: []zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedBestCompression)},
		},
		Archival: archives.Tar{},
	}
	if err := format.Archive(ctx, out, files); err != nil {
		return fmt.Errorf("archive %s: %w", output, err)
	}
	return out.Close()
}
