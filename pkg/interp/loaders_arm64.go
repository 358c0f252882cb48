package interp

var archLoaders = []string{
	"ld-linux-aarch64.so.1",
	"ld-musl-aarch64.so.1",
}
