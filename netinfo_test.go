package main

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPick(t *testing.T) {
	list := []NetInfo{
		{Device: "eth0", HardwareAddr: net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, Addr: net.IPv4(192, 168, 0, 1).To4()},
		{Device: "wlan0", HardwareAddr: net.HardwareAddr{0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, Addr: net.IPv4(10, 0, 0, 1).To4()},
	}

	info, err := v4pick(list, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&list[0], info); diff != "" {
		t.Errorf("default pick mismatch (-expected +got):\n%s", diff)
	}

	info, err = v4pick(list, "wlan0")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&list[1], info); diff != "" {
		t.Errorf("named pick mismatch (-expected +got):\n%s", diff)
	}

	if info, err := v4pick(list, "eth9"); err == nil {
		t.Errorf("got %v for unknown device - expected an error", info)
	}
	if info, err := v4pick(nil, ""); err == nil {
		t.Errorf("got %v from an empty inventory - expected an error", info)
	}
	if info, err := v4pick(nil, "eth0"); err == nil {
		t.Errorf("got %v from an empty inventory - expected an error", info)
	}
}

func TestNetinfo(t *testing.T) {
	// content depends on the host; only the candidate constraints can be
	// checked
	for _, info := range netinfo() {
		if info.Device == "" {
			t.Errorf("inventory entry with no device name")
		}
		if len(info.HardwareAddr) != 6 {
			t.Errorf("%s: inventory entry with hardware address %s", info.Device, info.HardwareAddr)
		}
		if info.Addr.To4() == nil {
			t.Errorf("%s: inventory entry with non-IPv4 address %s", info.Device, info.Addr)
		}
	}
}
