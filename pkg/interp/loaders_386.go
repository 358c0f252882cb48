package interp

var archLoaders = []string{
	"ld-linux.so.2",
	"ld-musl-i386.so.1",
}
