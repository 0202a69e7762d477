package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pyke369/golang-support/fqdn"
	j "github.com/pyke369/golang-support/jsonrpc"
	"github.com/pyke369/golang-support/ulog"
	"github.com/pyke369/golang-support/ustr"
)

const PROGNAME = "dhcpq"
const PROGVER = "1.0.0"

func bail(message string, extra ...int) {
	if message != "" {
		os.Stderr.WriteString(message + " - aborting\n")
	}
	if len(extra) > 0 {
		os.Exit(extra[0])
	}
	if message != "" {
		os.Exit(1)
	}
	os.Exit(0)
}

func main() {
	var flags flag.FlagSet

	flags = flag.FlagSet{Usage: func() {
		os.Stderr.WriteString("usage: " + filepath.Base(os.Args[0]) + " [<option>...]\n\noptions are:\n")
		flags.PrintDefaults()
	}}
	version := flags.Bool("v", j.Boolean(os.Getenv("DHCPQ_VERSION")), "show program version")
	list1 := flags.Bool("l", j.Boolean(os.Getenv("DHCPQ_LIST")), "list known DHCP options (human format)")
	list2 := flags.Bool("j", j.Boolean(os.Getenv("DHCPQ_LIST_JSON")), "list known DHCP options (JSON format)")
	options := flags.String("o", os.Getenv("DHCPQ_OPTIONS"), "query specified option(s) (comma-separated names or numbers)")
	address := flags.String("a", os.Getenv("DHCPQ_ADDRESS"), "use specified client address")
	hardware := flags.String("m", os.Getenv("DHCPQ_HARDWARE"), "use specified client hardware address")
	interfaces := flags.String("i", os.Getenv("DHCPQ_INTERFACE"), "use specified interface")
	server := flags.String("s", j.String(os.Getenv("DHCPQ_SERVER"), "255.255.255.255"), "set DHCP server address")
	port := flags.Int("p", int(j.Number(os.Getenv("DHCPQ_PORT"), 67)), "use alternate server port")
	timeout := flags.Int("t", int(j.Number(os.Getenv("DHCPQ_TIMEOUT"), 10)), "set receive timeout")
	raw := flags.Bool("R", j.Boolean(os.Getenv("DHCPQ_RAW")), "use raw sockets (linux)")
	marshal := flags.Bool("J", j.Boolean(os.Getenv("DHCPQ_JSON")), "output JSON report")
	pretty := flags.Bool("P", j.Boolean(os.Getenv("DHCPQ_PRETTY")), "pretty-print JSON")
	format := flags.String("f", os.Getenv("DHCPQ_FORMAT"), "use alternate logging format")
	if err := flags.Parse(os.Args[1:]); err != nil {
		bail("", 1)
	}

	*timeout = min(30, max(1, *timeout))

	if *version {
		os.Stdout.WriteString(PROGNAME + " v" + PROGVER + "\n")
		os.Exit(0)
	}
	if *list1 || *list2 {
		v4list(*list2, *pretty)
		os.Exit(0)
	}

	if *format == "" {
		*format = "console(output=stderr,time=msdatetime)"
	}
	logger := ulog.New(*format)
	logger.SetOrder([]string{"event", "device", "client", "server", "option", "txid", "try", "duration", "reason"})

	if *options == "" {
		bail("no option specified")
	}
	targets, names := []byte{}, []string{}
	for _, part := range strings.Split(*options, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := v4resolve(part)
		if err != nil {
			bail(err.Error())
		}
		name := V4ROPTIONS[int(id)]
		if name == "" {
			name = strconv.Itoa(int(id))
		}
		targets, names = append(targets, id), append(names, name)
	}
	if len(targets) == 0 {
		bail("no option specified")
	}

	info, ierr := v4pick(netinfo(), *interfaces)
	if *address == "" {
		if ierr != nil {
			bail(ierr.Error())
		}
		*address = info.Addr.String()
	}
	if *hardware == "" {
		if ierr != nil {
			bail(ierr.Error())
		}
		*hardware = info.HardwareAddr.String()
	}
	if *raw && *interfaces == "" {
		if ierr != nil {
			bail(ierr.Error())
		}
		*interfaces = info.Device
	}

	to := &Addr{Addr: net.ParseIP(*server), Port: *port}
	if to.Addr == nil || to.Addr.To4() == nil {
		bail(`invalid server address "` + *server + `"`)
	}
	var conn Transport
	var err error
	if *raw {
		conn, err = NewRawConn(&Addr{Device: *interfaces, Port: *port + 1})
	} else {
		conn, err = NewConn(&Addr{Addr: net.ParseIP(*address), Port: *port + 1, Device: *interfaces})
	}
	if err != nil {
		bail(err.Error())
	}
	defer conn.Close()

	results, found := map[string]any{}, 0
	for index, target := range targets {
		name, answered := names[index], false
		var data []byte

		for try := 1; try <= 3 && !answered; try++ {
			packet, xid, err := v4inform(*address, *hardware, target)
			if err != nil {
				bail(err.Error())
			}
			txid := ustr.HexInt(uint64(xid), 4)
			start := time.Now()
			if _, err := conn.WriteTo(nil, to, packet); err != nil {
				logger.Warn(map[string]any{"event": "send", "option": name, "server": *server, "txid": txid, "try": try, "reason": err.Error()})
				continue
			}
			logger.Info(map[string]any{"event": "send", "option": name, "client": *address, "server": *server, "txid": txid, "try": try})
			conn.SetReadDeadline(time.Now().Add(time.Duration(*timeout) * time.Second))
			buffer := make([]byte, 4<<10)
			for {
				read, _, err := conn.ReadFrom(buffer)
				if err != nil {
					logger.Warn(map[string]any{"event": "recv", "option": name, "txid": txid, "try": try, "reason": "timeout"})
					break
				}
				if region := v4reply(buffer[:read], xid); region != nil {
					answered = true
					data = v4scan(region, target)
					logger.Info(map[string]any{"event": "recv", "option": name, "txid": txid, "duration": ustr.Duration(time.Since(start))})
					break
				}
			}
		}
		if !answered {
			logger.Warn(map[string]any{"event": "give-up", "option": name, "server": *server})
			continue
		}
		if data == nil {
			logger.Warn(map[string]any{"event": "miss", "option": name, "server": *server})
			continue
		}
		results[name] = v4value(target, data)
		found++
	}

	if *marshal {
		report := map[string]any{"client": *address, "hardware": *hardware, "server": *server, "options": results}
		if *interfaces != "" {
			report["device"] = *interfaces
		}
		if hostname, _ := fqdn.FQDN(); hostname != "" && hostname != "unknown" {
			report["host"] = hostname
		}
		content, err := json.Marshal(report)
		if *pretty {
			content, err = json.MarshalIndent(report, "", "  ")
		}
		if err != nil {
			bail(err.Error())
		}
		os.Stdout.Write(append(content, '\n'))

	} else {
		for _, name := range names {
			if value, ok := results[name]; ok {
				fmt.Printf("%s: %v\n", name, value)
			} else {
				fmt.Printf("%s: -\n", name)
			}
		}
	}
	if found == 0 {
		os.Exit(1)
	}
}
