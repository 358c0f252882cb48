//go:build !amd64 && !arm64 && !386 && !riscv64

package interp

var archLoaders []string
