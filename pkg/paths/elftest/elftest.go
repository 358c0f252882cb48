// Package elftest writes minimal ELF files for tests: an identification
// header, a section-header string table, empty named sections and, for
// dynamic files, a PT_INTERP program header.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"
)

// Write creates an executable ELF file at path of the given class (32 or
// 64) carrying the named sections.
func Write(t testing.TB, path string, class int, sections ...string) {
	t.Helper()
	write(t, path, Build(class, sections...))
}

// WriteDynamic is Write for a dynamically linked file requesting interp.
func WriteDynamic(t testing.TB, path string, class int, interp string, sections ...string) {
	t.Helper()
	write(t, path, BuildDynamic(class, interp, sections...))
}

func write(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0755); err != nil {
		t.Fatal(err)
	}
}

// Build assembles a static file image.
func Build(class int, sections ...string) []byte {
	return BuildDynamic(class, "", sections...)
}

// BuildDynamic assembles a file image; an empty interp leaves out the
// program header.
func BuildDynamic(class int, interp string, sections ...string) []byte {
	strtab := []byte{0}
	names := make([]uint32, 0, len(sections)+1)
	for _, name := range append([]string{".shstrtab"}, sections...) {
		names = append(names, uint32(len(strtab)))
		strtab = append(strtab, name...)
		strtab = append(strtab, 0)
	}
	strtab = pad(strtab)

	var interpData []byte
	if interp != "" {
		interpData = pad(append([]byte(interp), 0))
	}
	var phnum uint16
	if interp != "" {
		phnum = 1
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	buf := new(bytes.Buffer)
	shnum := uint16(len(sections) + 2)
	le := binary.LittleEndian

	if class == 32 {
		ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
		ehsize := uint32(binary.Size(elf.Header32{}))
		phentsize := uint32(binary.Size(elf.Prog32{}))
		interpOff := ehsize + uint32(len(strtab))
		phoff := interpOff + uint32(len(interpData))
		shoff := phoff + uint32(phnum)*phentsize
		h := elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(elf.EM_386),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     shoff,
			Ehsize:    uint16(ehsize),
			Phentsize: uint16(phentsize),
			Phnum:     phnum,
			Shentsize: uint16(binary.Size(elf.Section32{})),
			Shnum:     shnum,
			Shstrndx:  1,
		}
		if phnum > 0 {
			h.Phoff = phoff
		}
		binary.Write(buf, le, h)
		buf.Write(strtab)
		buf.Write(interpData)
		if phnum > 0 {
			binary.Write(buf, le, elf.Prog32{
				Type: uint32(elf.PT_INTERP), Off: interpOff, Filesz: uint32(len(interp) + 1), Memsz: uint32(len(interp) + 1), Flags: uint32(elf.PF_R), Align: 1,
			})
		}
		binary.Write(buf, le, elf.Section32{})
		binary.Write(buf, le, elf.Section32{
			Name: names[0], Type: uint32(elf.SHT_STRTAB), Off: ehsize, Size: uint32(len(strtab)), Addralign: 1,
		})
		for i := range sections {
			binary.Write(buf, le, elf.Section32{
				Name: names[i+1], Type: uint32(elf.SHT_PROGBITS), Off: ehsize, Addralign: 1,
			})
		}
		return buf.Bytes()
	}

	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ehsize := uint64(binary.Size(elf.Header64{}))
	phentsize := uint64(binary.Size(elf.Prog64{}))
	interpOff := ehsize + uint64(len(strtab))
	phoff := interpOff + uint64(len(interpData))
	shoff := phoff + uint64(phnum)*phentsize
	h := elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    uint16(ehsize),
		Phentsize: uint16(phentsize),
		Phnum:     phnum,
		Shentsize: uint16(binary.Size(elf.Section64{})),
		Shnum:     shnum,
		Shstrndx:  1,
	}
	if phnum > 0 {
		h.Phoff = phoff
	}
	binary.Write(buf, le, h)
	buf.Write(strtab)
	buf.Write(interpData)
	if phnum > 0 {
		binary.Write(buf, le, elf.Prog64{
			Type: uint32(elf.PT_INTERP), Flags: uint32(elf.PF_R), Off: interpOff, Filesz: uint64(len(interp) + 1), Memsz: uint64(len(interp) + 1), Align: 1,
		})
	}
	binary.Write(buf, le, elf.Section64{})
	binary.Write(buf, le, elf.Section64{
		Name: names[0], Type: uint32(elf.SHT_STRTAB), Off: ehsize, Size: uint64(len(strtab)), Addralign: 1,
	})
	for i := range sections {
		binary.Write(buf, le, elf.Section64{
			Name: names[i+1], Type: uint32(elf.SHT_PROGBITS), Off: ehsize, Addralign: 1,
		})
	}
	return buf.Bytes()
}

func pad(b []byte) []byte {
	for len(b)%8 != 0 {
		b = append(b, 0)
	}
	return b
}
