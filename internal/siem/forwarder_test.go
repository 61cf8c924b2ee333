package siem

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFormat_SyslogLine(t *testing.T) {
	f := NewForwarder("collector:514", "tcp", time.Second, zap.NewNop())
	f.hostname = "web01"

	ts := time.Date(2026, time.August, 2, 9, 30, 5, 0, time.UTC)
	ev := LoginAttempt("alice", "10.0.0.7", false, map[string]any{"reason": "invalid_password", "attempts": 3}, ts)

	line := f.format(ev)
	if !strings.HasPrefix(line, "<134>Aug  2 09:30:05 web01 secwatch: ") {
		t.Fatalf("bad header: %s", line)
	}
	if !strings.Contains(line, `type="LOGIN_ATTEMPT"`) {
		t.Fatalf("missing type tag: %s", line)
	}
	for _, want := range []string{`"reason":"invalid_password"`, `"status":"failure"`, `"username":"alice"`, `"ip_address":"10.0.0.7"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in: %s", want, line)
		}
	}
}

func TestSend_TCP_DeliversLine(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- line
	}()

	f := NewForwarder(ln.Addr().String(), "tcp", 2*time.Second, zap.NewNop())
	defer f.Close()
	f.Send(AdminAccess("root", "10.0.0.1", "/admin/users", true, time.Now()))

	select {
	case line := <-got:
		if !strings.Contains(line, `type="ADMIN_ACCESS"`) || !strings.HasSuffix(line, "\n") {
			t.Fatalf("unexpected line: %q", line)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("collector never received the event")
	}
}

func TestSend_UDP_DeliversDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer pc.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		got <- string(buf[:n])
	}()

	f := NewForwarder(pc.LocalAddr().String(), "udp", 2*time.Second, zap.NewNop())
	f.Send(SuspiciousActivity("attacker", "192.0.2.55", "port_scan", map[string]any{"ports": []int{22, 80}}, time.Now()))

	select {
	case msg := <-got:
		if !strings.Contains(msg, `type="SUSPICIOUS_ACTIVITY"`) {
			t.Fatalf("unexpected datagram: %q", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("collector never received the datagram")
	}
}

func TestSend_UnreachableCollector_DoesNotPanicOrBlock(t *testing.T) {
	f := NewForwarder("127.0.0.1:1", "tcp", 200*time.Millisecond, zap.NewNop())
	defer f.Close()

	done := make(chan struct{})
	go func() {
		f.Send(LoginAttempt("alice", "10.0.0.7", true, nil, time.Now()))
		f.Send(LoginAttempt("alice", "10.0.0.7", true, nil, time.Now()))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("send must not block past its timeout")
	}
}

func TestSend_Disabled_NoOp(t *testing.T) {
	f := NewForwarder("", "tcp", time.Second, zap.NewNop())
	if f.Enabled() {
		t.Fatalf("forwarder without address must report disabled")
	}
	f.Send(LoginAttempt("alice", "10.0.0.7", true, nil, time.Now()))
	f.Close()
}
