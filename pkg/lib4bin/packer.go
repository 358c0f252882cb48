package lib4bin

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/u-root/u-root/pkg/ldd"
	"github.com/zeebo/blake3"

	"github.com/xplshn/sharun/pkg/libpath"
	"github.com/xplshn/sharun/pkg/msg"
	"github.com/xplshn/sharun/pkg/paths"
)

// Constants for directory structure
const (
	defaultDstDir    = "output"
	defaultSharedDir = "shared"
	defaultLibDir    = "lib"
	defaultLib32Dir  = "lib32"
	defaultBinDir    = "bin"
	sharunName       = "sharun"
)

const (
	KindStatic  = "static"
	KindDynamic = "dynamic"
)

// Options drive a Packer.
type Options struct {
	DstDir string
	// Sharun is the launcher copied into the bundle. Empty means the
	// sharun found in PATH.
	Sharun    string
	Strip     bool
	HardLinks bool
	// AppName, when set, is written to .app so that an AppRun link starts it.
	AppName string
	// WithDesktop copies the host's desktop entry for AppName.
	WithDesktop bool
	// Report is a file to write the JSON report to, "-" for stdout.
	Report string
	// Archive is a .tar.zst file to pack the finished bundle into.
	Archive string
}

// Entry describes one packed binary.
type Entry struct {
	Name   string   `json:"name"`
	Source string   `json:"source"`
	Kind   string   `json:"kind"`
	Class  string   `json:"class,omitempty"`
	Interp string   `json:"interp,omitempty"`
	Libs   []string `json:"libs,omitempty"`
	B3Sum  string   `json:"b3sum"`
}

type Report struct {
	DstDir  string  `json:"dst_dir"`
	Entries []Entry `json:"entries"`
	Archive string  `json:"archive,omitempty"`
}

// Packer copies binaries and their library closure into a bundle.
type Packer struct {
	opts Options
	// deps lists the files a dynamic binary needs at run time.
	deps   func(path string) ([]string, error)
	copied map[string]struct{}
}

func New(opts Options) *Packer {
	if opts.DstDir == "" {
		opts.DstDir = defaultDstDir
	}
	return &Packer{
		opts:   opts,
		deps:   func(path string) ([]string, error) { return ldd.FList(path) },
		copied: make(map[string]struct{}),
	}
}

// Pack processes every binary, regenerates the lib.path caches and then
// writes the optional .app, desktop entry, report and archive. A binary
// that fails is logged and skipped; the first such error is returned once
// the rest are done.
func (p *Packer) Pack(ctx context.Context, binaries []string) (*Report, error) {
	if len(binaries) == 0 {
		return nil, errors.New("specify the ELF binary executable")
	}
	if err := os.MkdirAll(p.opts.DstDir, 0755); err != nil {
		return nil, err
	}

	report := &Report{DstDir: p.opts.DstDir}
	var firstErr error
	for _, binary := range binaries {
		entry, err := p.processBinary(binary)
		if err != nil {
			msg.Error("Error processing %s: %v", binary, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		msg.Info("Processed %s binary: %s", entry.Kind, entry.Name)
		report.Entries = append(report.Entries, *entry)
	}

	for _, dir := range []string{defaultLibDir, defaultLib32Dir} {
		root := filepath.Join(p.opts.DstDir, defaultSharedDir, dir)
		if !paths.IsDir(root) {
			continue
		}
		if _, err := libpath.Generate(root); err != nil {
			return report, err
		}
	}

	if err := p.writeAppName(); err != nil {
		return report, err
	}

	if p.opts.Archive != "" {
		if err := Archive(ctx, p.opts.DstDir, p.opts.Archive); err != nil {
			return report, err
		}
		report.Archive = p.opts.Archive
	}

	if p.opts.Report != "" {
		if err := writeReport(report, p.opts.Report); err != nil {
			return report, err
		}
	}
	return report, firstErr
}

func (p *Packer) processBinary(binaryPath string) (*Entry, error) {
	fileInfo, err := os.Stat(binaryPath)
	if err != nil {
		return nil, err
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("skipped: %s is not a regular file", binaryPath)
	}

	interp, err := paths.Interpreter(binaryPath)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Name: fileInfo.Name(), Source: binaryPath, Kind: KindStatic}
	dst := p.path(defaultBinDir, entry.Name)
	if interp != "" {
		entry.Kind, entry.Interp = KindDynamic, interp
		dst, err = p.processDynamic(binaryPath, entry)
	} else {
		err = p.install(binaryPath, dst)
	}
	if err != nil {
		return nil, err
	}

	if entry.B3Sum, err = b3sum(dst); err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *Packer) processDynamic(binaryPath string, entry *Entry) (string, error) {
	class, err := paths.ElfClass(binaryPath)
	if err != nil {
		return "", err
	}
	entry.Class = class.String()
	libDir := defaultLibDir
	if class == paths.Class32 {
		libDir = defaultLib32Dir
	}

	if err := p.installSharun(); err != nil {
		return "", err
	}

	dst := p.path(defaultSharedDir, defaultBinDir, entry.Name)
	if err := p.install(binaryPath, dst); err != nil {
		return "", err
	}

	libs, err := p.deps(binaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to list libraries of %s: %w", binaryPath, err)
	}
	for _, lib := range libs {
		if paths.IsHardlink(lib, binaryPath) || !paths.IsFile(lib) {
			continue
		}
		libDst := p.path(defaultSharedDir, libDir, filepath.Base(lib))
		if _, ok := p.copied[libDst]; !ok {
			if err := p.install(lib, libDst); err != nil {
				return "", err
			}
			p.copied[libDst] = struct{}{}
		}
		entry.Libs = append(entry.Libs, filepath.Base(lib))
	}

	return dst, p.linkToSharun(entry.Name)
}

func (p *Packer) path(elem ...string) string {
	return filepath.Join(append([]string{p.opts.DstDir}, elem...)...)
}

// install copies src to dst with mode 0755 and strips it when asked to.
func (p *Packer) install(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Chmod(dst, 0755); err != nil {
		return err
	}
	return p.tryStrip(dst)
}

func (p *Packer) installSharun() error {
	dst := p.path(sharunName)
	if paths.Exists(dst) {
		return nil
	}
	src := p.opts.Sharun
	if src == "" {
		found, err := exec.LookPath(sharunName)
		if err != nil {
			return fmt.Errorf("sharun not found in PATH: %w", err)
		}
		src = found
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Chmod(dst, 0755)
}

func (p *Packer) linkToSharun(name string) error {
	link := p.path(defaultBinDir, name)
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return err
	}
	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if p.opts.HardLinks {
		return os.Link(p.path(sharunName), link)
	}
	return os.Symlink("../"+sharunName, link)
}

// tryStrip attempts to strip the binary if the option is set
func (p *Packer) tryStrip(filePath string) error {
	if !p.opts.Strip {
		return nil
	}
	stripPath, err := exec.LookPath("strip")
	if err != nil {
		return fmt.Errorf("strip command not found: %w", err)
	}
	if out, err := exec.Command(stripPath, "-s", "--strip-unneeded", filePath).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to strip %s: %v: %s", filePath, err, out)
	}
	return nil
}

func (p *Packer) writeAppName() error {
	if p.opts.AppName == "" {
		return nil
	}
	if err := os.WriteFile(p.path(".app"), []byte(p.opts.AppName+"\n"), 0644); err != nil {
		return err
	}
	if !p.opts.WithDesktop {
		return nil
	}

	desktop, err := xdg.SearchDataFile(filepath.Join("applications", p.opts.AppName+".desktop"))
	if err != nil {
		msg.Warn("No desktop entry for %s: %v", p.opts.AppName, err)
		return nil
	}
	return copyFile(desktop, p.path(filepath.Base(desktop)))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func b3sum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func writeReport(report *Report, dst string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if dst == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
