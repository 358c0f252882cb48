package interp

var archLoaders = []string{
	"ld-linux-riscv64-lp64d.so.1",
	"ld-musl-riscv64.so.1",
}
