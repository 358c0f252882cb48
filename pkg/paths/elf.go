package paths

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Class is the bitness recorded in an ELF identification header.
type Class int

const (
	Class32 Class = 32
	Class64 Class = 64
)

func (c Class) String() string { return fmt.Sprintf("ELF%d", int(c)) }

var (
	ErrNotElf       = errors.New("not an ELF file")
	ErrUnknownClass = errors.New("unknown ELF class")
	elfMagic        = []byte(elf.ELFMAG)
)

// ElfClass reads the identification bytes of path.
func ElfClass(path string) (Class, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ident := make([]byte, elf.EI_CLASS+1)
	if _, err := io.ReadFull(f, ident); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%s: %w", path, ErrNotElf)
		}
		return 0, err
	}
	if !bytes.Equal(ident[:4], elfMagic) {
		return 0, fmt.Errorf("%s: %w", path, ErrNotElf)
	}

	switch elf.Class(ident[elf.EI_CLASS]) {
	case elf.ELFCLASS32:
		return Class32, nil
	case elf.ELFCLASS64:
		return Class64, nil
	}
	return 0, fmt.Errorf("%s: %w: %d", path, ErrUnknownClass, ident[elf.EI_CLASS])
}

// HasElfSection reports whether the section header string table of path
// names a section called name. Files that do not parse as ELF have no
// sections.
func HasElfSection(path, name string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return false, nil
	}
	defer ef.Close()
	return ef.Section(name) != nil, nil
}

// Interpreter returns the program interpreter an ELF executable asks for,
// or "" when it is statically linked.
func Interpreter(path string) (string, error) {
	ef, err := elf.Open(path)
	if err != nil {
		var ferr *elf.FormatError
		if errors.As(err, &ferr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%s: %w", path, ErrNotElf)
		}
		return "", err
	}
	defer ef.Close()

	for _, prog := range ef.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}
		data, err := io.ReadAll(prog.Open())
		if err != nil {
			return "", fmt.Errorf("%s: read PT_INTERP: %w", path, err)
		}
		return strings.TrimRight(string(data), "\x00"), nil
	}
	return "", nil
}
