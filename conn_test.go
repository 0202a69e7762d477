package main

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

func TestConn(t *testing.T) {
	server, err := NewConn(&Addr{Addr: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	client, err := NewConn(&Addr{Addr: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	if server.Local().Port == 0 || client.Local().Port == 0 {
		t.Fatal("no local port assigned")
	}

	to := &Addr{Addr: net.ParseIP("127.0.0.1"), Port: server.Local().Port}
	if _, err := client.WriteTo(nil, to, []byte("ping")); err != nil {
		t.Fatal(err)
	}
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	buffer := make([]byte, 64)
	read, from, err := server.ReadFrom(buffer)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buffer[:read], []byte("ping")) {
		t.Errorf(`got "%s" - expected "ping"`, buffer[:read])
	}
	if from.Port != client.Local().Port {
		t.Errorf("got source port %d - expected %d", from.Port, client.Local().Port)
	}

	if _, err := server.WriteTo(nil, from, []byte("pong")); err != nil {
		t.Fatal(err)
	}
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	read, _, err = client.ReadFrom(buffer)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buffer[:read], []byte("pong")) {
		t.Errorf(`got "%s" - expected "pong"`, buffer[:read])
	}
}

func TestConnDeadline(t *testing.T) {
	conn, err := NewConn(&Addr{Addr: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := conn.ReadFrom(make([]byte, 64)); err == nil {
		t.Fatal("read succeeded with nothing sent")
	} else {
		var nerr net.Error
		if !errors.As(err, &nerr) || !nerr.Timeout() {
			t.Fatalf("got %v - expected a timeout", err)
		}
	}
}

func TestConnErrors(t *testing.T) {
	if conn, err := NewConn(&Addr{Port: -1}); err == nil {
		conn.Close()
		t.Errorf("negative bind port accepted")
	}
	if conn, err := NewConn(&Addr{Port: 1 << 17}); err == nil {
		conn.Close()
		t.Errorf("out-of-range bind port accepted")
	}
	if conn, err := NewConn(&Addr{Addr: net.ParseIP("fe80::1")}); err == nil {
		conn.Close()
		t.Errorf("IPv6 bind address accepted")
	}

	conn, err := NewConn(&Addr{Addr: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.WriteTo(nil, nil, []byte("ping")); err == nil {
		t.Errorf("write with no destination accepted")
	}
	if _, err := conn.WriteTo(nil, &Addr{Addr: net.ParseIP("127.0.0.1")}, []byte("ping")); err == nil {
		t.Errorf("write with no destination port accepted")
	}
}
