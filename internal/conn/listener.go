// Package conn implements the loopback-only TCP connection manager: bind,
// accept-with-timeout via select(2), best-effort peer hostname resolution,
// and ordered shutdown.
package conn

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-simctl/internal/constants"
	"github.com/ehrlich-b/go-simctl/internal/logging"
)

// Config configures the listener, following the teacher's Config/Default
// pattern.
type Config struct {
	Port       int
	TimeoutSec int
	Backlog    int
	Logger     *logging.Logger
}

// DefaultConfig returns the spec's default port/timeout/backlog.
func DefaultConfig() *Config {
	return &Config{
		Port:       constants.DefaultPort,
		TimeoutSec: constants.DefaultTimeoutSec,
		Backlog:    constants.DefaultListenBacklog,
	}
}

// Listener owns the server socket descriptor. Accepted client connections
// are returned to the caller, which owns and closes them.
type Listener struct {
	cfg      *Config
	logger   *logging.Logger
	tcp      *net.TCPListener
	rawConn  syscall.RawConn
	listenFd int
}

// FatalInitError wraps a bind/listen/accept-timeout failure (spec §7
// FatalInit): the FSM must log and transition to ERROR on seeing one.
type FatalInitError struct {
	Op    string
	Inner error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("conn: %s: %v", e.Op, e.Inner)
}
func (e *FatalInitError) Unwrap() error { return e.Inner }

// Bind creates a loopback-bound, listening TCP socket (spec §4.2: bind to
// 127.0.0.1:port, non-negotiable for the trust boundary; listen with the
// configured backlog).
func Bind(cfg *Config) (*Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: cfg.Port}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr.String())
	if err != nil {
		return nil, &FatalInitError{Op: "bind", Inner: err}
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, &FatalInitError{Op: "bind", Inner: fmt.Errorf("listener is not TCP")}
	}

	sc, err := tcpLn.SyscallConn()
	if err != nil {
		tcpLn.Close()
		return nil, &FatalInitError{Op: "bind", Inner: err}
	}

	l := &Listener{cfg: cfg, logger: logger, tcp: tcpLn, rawConn: sc}
	var listenErr error
	sc.Control(func(fd uintptr) {
		l.listenFd = int(fd)
		if cfg.Backlog > 0 {
			// listen(2) on an already-listening socket updates its backlog.
			listenErr = unix.Listen(int(fd), cfg.Backlog)
		}
	})
	if listenErr != nil {
		tcpLn.Close()
		return nil, &FatalInitError{Op: "listen", Inner: listenErr}
	}

	logger.Info("listening", "addr", addr.String(), "backlog", cfg.Backlog)
	return l, nil
}

// AcceptWithTimeout blocks until a client connects or the configured
// timeout elapses, using select(2) on the raw listening fd — a direct port
// of vs_server_accept's select loop, retried across EINTR (spec §4.2,
// SPEC_FULL.md §5). On timeout it returns a *FatalInitError wrapping
// ErrAcceptTimeout (spec §7 FatalInit: the FSM surfaces this as ERROR).
func (l *Listener) AcceptWithTimeout() (net.Conn, error) {
	deadline := time.Now().Add(time.Duration(l.cfg.TimeoutSec) * time.Second)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &FatalInitError{Op: "accept", Inner: ErrAcceptTimeout}
		}

		ready, err := l.selectReadable(remaining)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return nil, &FatalInitError{Op: "accept", Inner: err}
		}
		if !ready {
			return nil, &FatalInitError{Op: "accept", Inner: ErrAcceptTimeout}
		}

		conn, err := l.tcp.Accept()
		if err != nil {
			return nil, &FatalInitError{Op: "accept", Inner: err}
		}

		l.resolvePeerHostname(conn)
		return conn, nil
	}
}

// ErrAcceptTimeout is returned (wrapped in FatalInitError) when no client
// connects within the configured timeout.
var ErrAcceptTimeout = fmt.Errorf("accept timed out")

func (l *Listener) selectReadable(timeout time.Duration) (bool, error) {
	var ready bool
	var selectErr error

	ctrlErr := l.rawConn.Read(func(fd uintptr) bool {
		var fdSet unix.FdSet
		fdSetZero(&fdSet)
		fdSetSet(&fdSet, int(fd))

		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		n, err := unix.Select(int(fd)+1, &fdSet, nil, nil, &tv)
		if err != nil {
			selectErr = err
			return true
		}
		ready = n > 0
		return true
	})
	if ctrlErr != nil {
		return false, ctrlErr
	}
	return ready, selectErr
}

// resolvePeerHostname attempts a best-effort reverse DNS lookup of the
// connected peer. Failure is logged as a warning only, never fatal,
// matching vs_server_accept's gethostbyaddr call (SPEC_FULL.md §5).
func (l *Listener) resolvePeerHostname(c net.Conn) {
	host, _, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		l.logger.Warn("could not split peer address", "addr", c.RemoteAddr().String(), "error", err)
		return
	}

	done := make(chan struct{})
	var names []string
	var lookupErr error
	go func() {
		names, lookupErr = net.LookupAddr(host)
		close(done)
	}()

	select {
	case <-done:
		if lookupErr != nil {
			l.logger.Warn("peer hostname lookup failed", "peer", host, "error", lookupErr)
			return
		}
		if len(names) > 0 {
			l.logger.Info("accepted connection", "peer", host, "hostname", names[0])
		}
	case <-time.After(constants.HostnameLookupTimeout):
		l.logger.Warn("peer hostname lookup timed out", "peer", host)
	}
}

// Close shuts down the server socket. Clients must be closed by the caller
// before calling Close (spec §4.2: "clean shutdown closes the client
// socket before the server socket").
func (l *Listener) Close() error {
	if l.tcp == nil {
		return nil
	}
	return l.tcp.Close()
}

// Addr reports the bound address.
func (l *Listener) Addr() net.Addr {
	return l.tcp.Addr()
}
