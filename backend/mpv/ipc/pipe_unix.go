//go:build !windows
// +build !windows

package ipc

import "net"

func Dial(path string) (Conn, error) {
	return net.Dial("unix", path)
}

func Pipe(path string) string {
	return path
}
