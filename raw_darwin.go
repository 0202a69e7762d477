//go:build darwin

package main

import (
	"errors"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func sockopts(handle uintptr) {
	syscall.SetsockoptInt(int(handle), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	syscall.SetsockoptInt(int(handle), syscall.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	syscall.SetsockoptInt(int(handle), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
}

func BindToDevice(handle int, name string) error {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return err
	}
	return syscall.SetsockoptInt(handle, syscall.IPPROTO_IP, syscall.IP_BOUND_IF, iface.Index)
}

type RawConn struct {
	local *Addr
}

func NewRawConn(bind *Addr) (rc *RawConn, err error) {
	return nil, errors.ErrUnsupported
}

func (rc *RawConn) Local() *Addr {
	return rc.local
}

func (rc *RawConn) SetReadDeadline(deadline time.Time) error {
	return errors.ErrUnsupported
}

func (rc *RawConn) ReadFrom(data []byte) (read int, from *Addr, err error) {
	return 0, nil, errors.ErrUnsupported
}

func (rc *RawConn) WriteTo(from, to *Addr, data []byte) (written int, err error) {
	return 0, errors.ErrUnsupported
}

func (rc *RawConn) Close() error {
	return nil
}
