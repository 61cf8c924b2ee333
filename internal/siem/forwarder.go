package siem

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// priority is facility local0, severity informational, per the collector's
// log source configuration.
const priority = 134

// tag identifies this service in forwarded lines.
const tag = "secwatch"

// Forwarder relays events to the collector, best effort. TCP keeps one
// persistent connection with sends serialized under a mutex; UDP dials per
// message. With no address configured every send is a no-op. Failures are
// logged locally and never returned: audit completeness is traded for
// login-path liveness.
type Forwarder struct {
	addr     string // host:port, empty means disabled
	network  string // "tcp" or "udp"
	timeout  time.Duration
	hostname string
	log      *zap.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewForwarder constructs a forwarder. addr may be empty to disable
// forwarding entirely.
func NewForwarder(addr, network string, timeout time.Duration, log *zap.Logger) *Forwarder {
	if network != "udp" {
		network = "tcp"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &Forwarder{addr: addr, network: network, timeout: timeout, hostname: hostname, log: log}
}

// Enabled reports whether a collector endpoint is configured.
func (f *Forwarder) Enabled() bool { return f.addr != "" }

// Send forwards one event. It never blocks longer than the configured
// timeout and never surfaces an error to the caller.
func (f *Forwarder) Send(ev Event) {
	if f.addr == "" {
		return
	}
	line := f.format(ev)

	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.network == "udp" {
		err = f.sendUDP(line)
	} else {
		err = f.sendTCP(line)
	}
	if err != nil {
		f.log.Warn("siem forward failed",
			zap.String("collector", f.addr),
			zap.String("event_type", ev.Type),
			zap.Error(err),
		)
		return
	}
	f.log.Debug("siem event forwarded", zap.String("event_type", ev.Type))
}

func (f *Forwarder) sendTCP(line string) error {
	if f.conn == nil {
		conn, err := net.DialTimeout("tcp", f.addr, f.timeout)
		if err != nil {
			return err
		}
		f.conn = conn
	}
	if err := f.conn.SetWriteDeadline(time.Now().Add(f.timeout)); err != nil {
		f.dropConn()
		return err
	}
	if _, err := f.conn.Write([]byte(line + "\n")); err != nil {
		// Drop the connection; the next send redials. No retry here.
		f.dropConn()
		return err
	}
	return nil
}

func (f *Forwarder) sendUDP(line string) error {
	conn, err := net.DialTimeout("udp", f.addr, f.timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write([]byte(line))
	return err
}

func (f *Forwarder) dropConn() {
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
}

// Close releases the persistent collector connection, if any.
func (f *Forwarder) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropConn()
}

// format renders the QRadar syslog line:
//
//	<134>Jan  2 15:04:05 host secwatch: type="LOGIN_ATTEMPT" details="{...}"
func (f *Forwarder) format(ev Event) string {
	payload, err := json.Marshal(ev)
	if err != nil {
		payload = []byte("{}")
	}
	ts := ev.Timestamp.UTC().Format(time.Stamp)
	return fmt.Sprintf(`<%d>%s %s %s: type="%s" details="%s"`, priority, ts, f.hostname, tag, ev.Type, payload)
}
