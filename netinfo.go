package main

import (
	"errors"
	"net"
)

// NetInfo describes an interface a query can run from: up, not loopback,
// carrying both a hardware address and an IPv4 address.
type NetInfo struct {
	Device       string
	HardwareAddr net.HardwareAddr
	Addr         net.IP
}

func netinfo() (list []NetInfo) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) != 6 {
			continue
		}
		addresses, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, address := range addresses {
			if value, ok := address.(*net.IPNet); ok && value.IP.To4() != nil {
				list = append(list, NetInfo{Device: iface.Name, HardwareAddr: iface.HardwareAddr, Addr: value.IP.To4()})
				break
			}
		}
	}
	return
}

// v4pick selects the inventory entry for device, or the first candidate when
// no device is named; an empty inventory means no usable interface exists on
// this host.
func v4pick(list []NetInfo, device string) (*NetInfo, error) {
	for index, info := range list {
		if device == "" || info.Device == device {
			return &list[index], nil
		}
	}
	if device != "" {
		return nil, errors.New("no usable address on interface " + device)
	}
	return nil, errors.New("no usable interface")
}
