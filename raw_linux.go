//go:build linux

package main

import (
	"encoding/binary"
	"errors"
	"net"
	"os"
	"strconv"
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
	return syscall.SetsockoptString(handle, syscall.SOL_SOCKET, syscall.SO_BINDTODEVICE, name)
}

// RawConn sends and receives UDP datagrams over an AF_PACKET socket bound to
// an interface, building the ethernet/IPv4/UDP encapsulation by hand; it lets
// a query run on an interface with no configured address.
type RawConn struct {
	local  *Addr
	bind   *Addr
	handle int
	conn   *os.File
}

func crc16(input []byte) uint16 {
	checksum := 0
	if len(input)%2 != 0 {
		return 0
	}
	for offset := 0; offset < len(input); offset += 2 {
		checksum += int(binary.BigEndian.Uint16(input[offset:]))
	}
	for checksum > 0xffff {
		checksum = (checksum >> 16) + int(uint16(checksum))
	}
	return ^uint16(checksum)
}

func NewRawConn(bind *Addr) (rc *RawConn, err error) {
	if bind == nil || bind.Device == "" {
		return nil, errors.New("no bind device")
	}
	if bind.Port <= 0 || bind.Port > 65535 {
		return nil, errors.New("invalid bind port " + strconv.Itoa(bind.Port))
	}
	rc = &RawConn{local: &Addr{Device: bind.Device, Port: bind.Port}, bind: bind}
	ethertype := (syscall.ETH_P_IP << 8) | (syscall.ETH_P_IP >> 8)
	if rc.handle, err = syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, ethertype); err != nil {
		return nil, err
	}
	if err := syscall.SetsockoptInt(rc.handle, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return nil, err
	}
	if err := syscall.SetNonblock(rc.handle, true); err != nil {
		return nil, err
	}
	iface, err := net.InterfaceByName(bind.Device)
	if err != nil {
		return nil, errors.New("invalid bind device: " + err.Error())
	}
	if iface.HardwareAddr == nil {
		return nil, errors.New("no hardware address for interface " + bind.Device)
	}
	rc.local.HardwareAddr = iface.HardwareAddr
	if addresses, err := iface.Addrs(); err == nil {
		for _, address := range addresses {
			if value, ok := address.(*net.IPNet); ok && value.IP.To4() != nil {
				rc.local.Addr = value.IP.To4()
				break
			}
		}
	}
	if err := syscall.Bind(rc.handle, &syscall.SockaddrLinklayer{Protocol: uint16(ethertype), Ifindex: iface.Index}); err != nil {
		return nil, err
	}
	if rc.conn = os.NewFile(uintptr(rc.handle), "rawconn"+strconv.Itoa(rc.handle)); rc.conn == nil {
		return nil, errors.New("raw conn creation failed")
	}
	return rc, nil
}

func (rc *RawConn) Local() *Addr {
	return rc.local
}

func (rc *RawConn) SetReadDeadline(deadline time.Time) error {
	return rc.conn.SetReadDeadline(deadline)
}

func (rc *RawConn) ReadFrom(data []byte) (read int, from *Addr, err error) {
	for {
		if read, err = rc.conn.Read(data); err != nil {
			return
		}
		if read < 42 || data[23] != syscall.IPPROTO_UDP {
			continue
		}
		hsize := int((data[14] & 0x0f) * 4)
		if read < 14+hsize+8 {
			continue
		}
		from = &Addr{HardwareAddr: net.HardwareAddr{}, Device: rc.local.Device}
		from.HardwareAddr = append(from.HardwareAddr, data[6:12]...)
		from.Addr = net.IPv4(data[26], data[27], data[28], data[29])
		to := Addr{Addr: net.IPv4(data[30], data[31], data[32], data[33])}
		from.Port = int(binary.BigEndian.Uint16(data[14+hsize:]))
		to.Port = int(binary.BigEndian.Uint16(data[14+hsize+2:]))
		if to.Port != rc.bind.Port {
			continue
		}
		if !to.Addr.Equal(net.IPv4bcast) && rc.local.Addr != nil && !to.Addr.Equal(rc.local.Addr) {
			continue
		}
		copy(data, data[14+hsize+8:])
		read -= 14 + hsize + 8
		return
	}
}

func (rc *RawConn) WriteTo(from, to *Addr, data []byte) (written int, err error) {
	if to == nil || to.Port == 0 {
		return 0, errors.New("invalid destination port")
	}
	if from == nil {
		from = &Addr{HardwareAddr: rc.local.HardwareAddr, Addr: rc.local.Addr, Port: rc.bind.Port}
	}
	if from.HardwareAddr == nil {
		from.HardwareAddr = rc.local.HardwareAddr
	}
	if from.HardwareAddr == nil {
		return 0, errors.New("invalid source hardware address")
	}
	if from.Port == 0 {
		from.Port = rc.bind.Port
	}
	if from.Addr == nil {
		from.Addr = net.IPv4zero
	}
	if to.Addr == nil {
		to.Addr = net.IPv4bcast
	}
	if to.HardwareAddr == nil {
		to.HardwareAddr, _ = net.ParseMAC("ff:ff:ff:ff:ff:ff")
	}

	payload := make([]byte, 0, 42+len(data))
	// ETH destination and source addresses + ethertype
	payload = append(payload, to.HardwareAddr...)
	payload = append(payload, from.HardwareAddr...)
	payload = append(payload, byte(syscall.ETH_P_IP>>8), byte(syscall.ETH_P_IP&0xff))
	// IP4 header
	ilength, ulength := 28+len(data), 8+len(data)
	payload = append(payload, []byte{
		// IP4 version/hlength + TOS + length
		0x45, 0x10, byte(ilength >> 8), byte(ilength),
		// IP4 id + flags + offset
		0x00, 0x00, 0x00, 0x00,
		// IP4 ttl + protocol + checksum (overwritten below)
		128, 17, 0x00, 0x00,
	}...)
	payload = append(payload, from.Addr.To4()...)
	payload = append(payload, to.Addr.To4()...)
	binary.BigEndian.PutUint16(payload[24:], crc16(payload[14:34]))
	// UDP header
	payload = append(payload, []byte{
		byte(from.Port >> 8), byte(from.Port), byte(to.Port >> 8), byte(to.Port),
		// UDP length + checksum (unused)
		byte(ulength >> 8), byte(ulength), 0x00, 0x00,
	}...)
	payload = append(payload, data...)

	if _, err := rc.conn.Write(payload); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (rc *RawConn) Close() error {
	return rc.conn.Close()
}
