package main

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

type Addr struct {
	HardwareAddr net.HardwareAddr
	Addr         net.IP
	Port         int
	Device       string
}

// Transport is the send/receive channel a query runs over, either the
// portable UDP conn below or the AF_PACKET conn on linux.
type Transport interface {
	Local() *Addr
	SetReadDeadline(deadline time.Time) error
	ReadFrom(data []byte) (read int, from *Addr, err error)
	WriteTo(from, to *Addr, data []byte) (written int, err error)
	Close() error
}

type Conn struct {
	local *Addr
	conn  net.PacketConn
}

func NewConn(bind *Addr) (c *Conn, err error) {
	if bind == nil {
		bind = &Addr{}
	}
	address := ""
	if bind.Addr != nil {
		if bind.Addr.To4() == nil {
			return nil, errors.New("invalid bind address " + bind.Addr.String())
		}
		address = bind.Addr.String()
	}
	if bind.Port < 0 || bind.Port > 65535 {
		return nil, errors.New("invalid bind port " + strconv.Itoa(bind.Port))
	}
	config := net.ListenConfig{
		Control: func(network, address string, connection syscall.RawConn) error {
			connection.Control(func(handle uintptr) {
				sockopts(handle)
				if bind.Device != "" {
					BindToDevice(int(handle), bind.Device)
				}
			})
			return nil
		},
	}
	conn, err := config.ListenPacket(context.Background(), "udp4", address+":"+strconv.Itoa(bind.Port))
	if err != nil {
		return nil, err
	}
	c = &Conn{local: &Addr{Addr: bind.Addr, Port: bind.Port, Device: bind.Device}, conn: conn}
	if value, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		c.local.Addr, c.local.Port = value.IP, value.Port
	}
	return c, nil
}

func (c *Conn) Local() *Addr {
	return c.local
}

func (c *Conn) SetReadDeadline(deadline time.Time) error {
	return c.conn.SetReadDeadline(deadline)
}

func (c *Conn) ReadFrom(data []byte) (read int, from *Addr, err error) {
	read, address, err := c.conn.ReadFrom(data)
	if err != nil {
		return 0, nil, err
	}
	from = &Addr{Device: c.local.Device}
	if value, ok := address.(*net.UDPAddr); ok {
		from.Addr, from.Port = value.IP, value.Port
	}
	return read, from, nil
}

func (c *Conn) WriteTo(from, to *Addr, data []byte) (written int, err error) {
	if to == nil || to.Port == 0 {
		return 0, errors.New("invalid destination port")
	}
	address := to.Addr
	if address == nil {
		address = net.IPv4bcast
	}
	return c.conn.WriteTo(data, &net.UDPAddr{IP: address, Port: to.Port})
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
