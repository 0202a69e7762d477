package main

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/pyke369/golang-support/rcache"
	"github.com/pyke369/golang-support/uhash"
)

type V4OPTION struct {
	id       int
	mode     int
	multiple int
}

const (
	V4MODE_BINARY  = 1
	V4MODE_INTEGER = 2
	V4MODE_STRING  = 3
	V4MODE_INET4   = 4
	V4MODE_MASK    = 0x7f
	V4MODE_LIST    = 0x80
)

const (
	// legacy BOOTP fixed frame: 12 bytes header + 4 client address +
	// 12 padding + 16 hardware address + 192 sname/file + 4 magic cookie
	V4OFFSET_XID      = 4
	V4OFFSET_CLIENT   = 12
	V4OFFSET_HARDWARE = 28
	V4OFFSET_COOKIE   = 236
	V4OFFSET_OPTIONS  = 240
	V4SIZE_INFORM     = 257
	V4COOKIE          = 0x63825363
)

var (
	errHardwareAddress = errors.New("invalid hardware address")
	errClientAddress   = errors.New("invalid client address")

	V4MODE_NAMES = map[int]string{
		V4MODE_BINARY:  "binary",
		V4MODE_INTEGER: "integer",
		V4MODE_STRING:  "string",
		V4MODE_INET4:   "inet4",
	}
	V4OPTIONS = map[string]*V4OPTION{
		"subnet-mask":                 &V4OPTION{1, V4MODE_INET4, 0},
		"time-offset":                 &V4OPTION{2, V4MODE_INTEGER, 4},
		"routers":                     &V4OPTION{3, V4MODE_INET4 | V4MODE_LIST, 4},
		"time-servers":                &V4OPTION{4, V4MODE_INET4 | V4MODE_LIST, 4},
		"name-servers":                &V4OPTION{5, V4MODE_INET4 | V4MODE_LIST, 4},
		"domain-name-servers":         &V4OPTION{6, V4MODE_INET4 | V4MODE_LIST, 4},
		"log-servers":                 &V4OPTION{7, V4MODE_INET4 | V4MODE_LIST, 4},
		"hostname":                    &V4OPTION{12, V4MODE_STRING, 0},
		"boot-file-size":              &V4OPTION{13, V4MODE_INTEGER, 2},
		"domain-name":                 &V4OPTION{15, V4MODE_STRING, 0},
		"interface-mtu":               &V4OPTION{26, V4MODE_INTEGER, 2},
		"broadcast-address":           &V4OPTION{28, V4MODE_INET4, 0},
		"nis-domain":                  &V4OPTION{40, V4MODE_STRING, 0},
		"ntp-servers":                 &V4OPTION{42, V4MODE_INET4 | V4MODE_LIST, 4},
		"vendor-specific-information": &V4OPTION{43, V4MODE_BINARY, 0},
		"netbios-name-servers":        &V4OPTION{44, V4MODE_INET4 | V4MODE_LIST, 4},
		"address-lease-time":          &V4OPTION{51, V4MODE_INTEGER, 4},
		"server-identifier":           &V4OPTION{54, V4MODE_INET4, 0},
		"renewal-time":                &V4OPTION{58, V4MODE_INTEGER, 4},
		"rebinding-time":              &V4OPTION{59, V4MODE_INTEGER, 4},
		"vendor-class-identifier":     &V4OPTION{60, V4MODE_STRING, 0},
		"tftp-server-name":            &V4OPTION{66, V4MODE_STRING, 0},
		"boot-filename":               &V4OPTION{67, V4MODE_STRING, 0},
		"smtp-servers":                &V4OPTION{69, V4MODE_INET4 | V4MODE_LIST, 4},
		"pop3-servers":                &V4OPTION{70, V4MODE_INET4 | V4MODE_LIST, 4},
		"www-servers":                 &V4OPTION{72, V4MODE_INET4 | V4MODE_LIST, 4},
		"user-class":                  &V4OPTION{77, V4MODE_STRING, 0},
		"tz-posix":                    &V4OPTION{100, V4MODE_STRING, 0},
		"tz-database":                 &V4OPTION{101, V4MODE_STRING, 0},
		"auto-configuration":          &V4OPTION{116, V4MODE_INTEGER, 1},
		"subnet-selection":            &V4OPTION{118, V4MODE_INET4, 0},
		"domain-search":               &V4OPTION{119, V4MODE_STRING, 0},
		"sip-server":                  &V4OPTION{120, V4MODE_BINARY, 0},
		"classless-route":             &V4OPTION{121, V4MODE_BINARY, 0},
		"tftp-servers":                &V4OPTION{150, V4MODE_INET4 | V4MODE_LIST, 4},
		"wpad-url":                    &V4OPTION{252, V4MODE_STRING, 0},
	}
	V4ROPTIONS = map[int]string{}
)

func init() {
	for name, option := range V4OPTIONS {
		V4ROPTIONS[option.id] = name
	}
}

// v4hardware decodes a colon-separated hardware address into its 6 raw bytes.
func v4hardware(hardware string) ([]byte, error) {
	hardware = strings.ToLower(strings.TrimSpace(hardware))
	if !rcache.Get(`^([0-9a-f]{1,2}:){5}[0-9a-f]{1,2}$`).MatchString(hardware) {
		return nil, fmt.Errorf(`%w "%s"`, errHardwareAddress, hardware)
	}
	address := make([]byte, 0, 6)
	for _, part := range strings.Split(hardware, ":") {
		value, _ := strconv.ParseUint(part, 16, 8)
		address = append(address, byte(value))
	}
	return address, nil
}

// v4inform builds a DHCPINFORM request asking the server for one extra option
// (through a parameters-request-list also carrying option 43), and returns
// the transaction id drawn for the exchange. The 202 zero bytes emitted after
// the hardware address cover both the remainder of the 16-byte chaddr field
// and the sname/file regions of the legacy BOOTP frame.
func v4inform(client, hardware string, option byte) (packet []byte, xid uint32, err error) {
	mac, err := v4hardware(hardware)
	if err != nil {
		return nil, 0, err
	}
	address := net.ParseIP(strings.TrimSpace(client))
	if address == nil || address.To4() == nil {
		return nil, 0, fmt.Errorf(`%w "%s"`, errClientAddress, client)
	}
	xid = uint32(uhash.RandInt(1<<31-2)) + 1
	packet = make([]byte, 0, V4SIZE_INFORM)
	packet = append(packet,
		1, // bootp opcode: request
		1, // hardware type: ethernet
		6, // hardware address length
		0, // relay hops
	)
	packet = binary.BigEndian.AppendUint32(packet, xid)
	packet = binary.BigEndian.AppendUint16(packet, 0) // start time
	packet = binary.BigEndian.AppendUint16(packet, 0) // flags
	packet = append(packet, address.To4()...)
	packet = append(packet, make([]byte, 12)...)
	packet = append(packet, mac...)
	packet = append(packet, make([]byte, 202)...)
	packet = append(packet, 99, 130, 83, 99) // magic cookie
	packet = append(packet,
		53, 1, 8, // dhcp-message-type: inform
		61, 7, 1, // client-identifier: hardware type + address
	)
	packet = append(packet, mac...)
	packet = append(packet,
		55, 2, 43, option, // parameters-request-list
		255, // end of options
	)
	return packet, xid, nil
}

// v4scan walks an options region and returns the payload of the first record
// matching target, or nil when the terminator, the end of the buffer or a
// record running past it is reached first. An option present with an empty
// payload comes back as a non-nil empty slice.
func v4scan(options []byte, target byte) []byte {
	for offset := 0; offset < len(options); {
		number := options[offset]
		if number == 255 {
			break
		}
		if offset+1 >= len(options) {
			break
		}
		size := int(options[offset+1])
		offset += 2
		if offset+size > len(options) {
			break
		}
		if number == target {
			return options[offset : offset+size]
		}
		offset += size
	}
	return nil
}

// v4reply returns the options region of a server reply, or nil when the
// packet is not a usable answer to the request identified by xid.
func v4reply(packet []byte, xid uint32) []byte {
	if len(packet) < V4OFFSET_OPTIONS || packet[0] != 2 {
		return nil
	}
	if binary.BigEndian.Uint32(packet[V4OFFSET_XID:]) != xid {
		return nil
	}
	if binary.BigEndian.Uint32(packet[V4OFFSET_COOKIE:]) != V4COOKIE {
		return nil
	}
	return packet[V4OFFSET_OPTIONS:]
}

// v4resolve maps an option name or decimal number to its option id; 0 (pad)
// and 255 (end of options) can never be queried and are rejected.
func v4resolve(in string) (byte, error) {
	in = strings.ToLower(strings.TrimSpace(in))
	if option := V4OPTIONS[in]; option != nil {
		return byte(option.id), nil
	}
	if id, err := strconv.Atoi(in); err == nil {
		if id > 0 && id < 255 {
			return byte(id), nil
		}
		return 0, fmt.Errorf(`reserved option %d`, id)
	}
	return 0, fmt.Errorf(`unknown option "%s"`, in)
}

// v4value renders an option payload for display, according to the directory
// mode when the option is known and as an hex-encoded blob otherwise.
func v4value(id byte, data []byte) any {
	option := V4OPTIONS[V4ROPTIONS[int(id)]]
	if option == nil {
		option = &V4OPTION{int(id), V4MODE_BINARY, 0}
	}
	switch option.mode & V4MODE_MASK {
	case V4MODE_STRING:
		return string(data)

	case V4MODE_INTEGER:
		switch {
		case option.multiple == 1 && len(data) >= 1:
			return int(data[0])
		case option.multiple == 2 && len(data) >= 2:
			return int(binary.BigEndian.Uint16(data))
		case option.multiple == 4 && len(data) >= 4:
			return int(binary.BigEndian.Uint32(data))
		}

	case V4MODE_INET4:
		addresses := []string{}
		for offset := 0; offset+4 <= len(data); offset += 4 {
			addresses = append(addresses, net.IP(data[offset:offset+4]).String())
		}
		if option.mode&V4MODE_LIST != 0 {
			return addresses
		}
		if len(addresses) == 1 {
			return addresses[0]
		}
	}
	return fmt.Sprintf("%x", data)
}

func v4list(marshal, pretty bool) {
	if marshal {
		options := map[string]any{}
		for name, option := range V4OPTIONS {
			options[name] = map[string]any{"id": option.id, "mode": V4MODE_NAMES[option.mode&V4MODE_MASK], "list": option.mode&V4MODE_LIST != 0}
		}
		if pretty {
			if content, err := json.MarshalIndent(options, "", "  "); err == nil {
				fmt.Printf("%s\n", content)
			}
		} else {
			if content, err := json.Marshal(options); err == nil {
				fmt.Printf("%s\n", content)
			}
		}
		return
	}
	fmt.Printf("option                                  type                                    id\n")
	fmt.Printf("--------------------------------------- --------------------------------------- ---\n")
	ids := []int{}
	for id := range V4ROPTIONS {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		name := V4ROPTIONS[id]
		option := V4OPTIONS[name]
		mode := V4MODE_NAMES[option.mode&V4MODE_MASK]
		if option.mode&V4MODE_MASK == V4MODE_INTEGER {
			mode = fmt.Sprintf("%dbits integer", 8*option.multiple)
		}
		if option.mode&V4MODE_LIST != 0 {
			mode += " list"
		}
		fmt.Printf("%-40.40s%-40.40s%d\n", name, mode, id)
	}
}
