package interp

var archLoaders = []string{
	"ld-linux-x86-64.so.2",
	"ld-musl-x86_64.so.1",
	"ld-linux.so.2",
}
