//go:build unix

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"riptide/internal/coro"
	"riptide/internal/ioengine"
	"riptide/internal/osfd"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a poll-driven TCP echo server",
	Long:  `Serve TCP echo from a single thread: one coroutine per connection, all suspended on the I/O engine and woken by one batched poll`,
	RunE:  runEcho,
}

func init() {
	echoCmd.Flags().String("listen", "", "listen address (overrides riptide.toml)")
	echoCmd.Flags().Int("self-test", 0, "run N concurrent echo clients against the server, then shut down")
	echoCmd.Flags().Int("messages", 10, "messages each self-test client sends")
}

// echoServer is the per-run state shared by the server coroutines. It lives
// entirely on the goroutine that owns the engine.
type echoServer struct {
	eng         *ioengine.Engine
	listener    *osfd.Handle
	stop        *osfd.Handle // read end of the shutdown pipe
	conns       map[int]*osfd.Handle
	idleTimeout time.Duration
}

func runEcho(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if err := applyColorFlag(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr := cfg.Echo.Listen
	if flagAddr, ferr := cmd.Flags().GetString("listen"); ferr == nil && flagAddr != "" {
		addr = flagAddr
	}
	selfTest, err := cmd.Flags().GetInt("self-test")
	if err != nil {
		return fmt.Errorf("failed to get self-test flag: %w", err)
	}
	messages, err := cmd.Flags().GetInt("messages")
	if err != nil {
		return fmt.Errorf("failed to get messages flag: %w", err)
	}

	tracer, err := buildTracer(cfg.Trace)
	if err != nil {
		return err
	}

	listener, err := listenTCP(addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	stopR, stopW, err := osfd.Pipe()
	if err != nil {
		return err
	}
	defer stopR.Close()
	defer stopW.Close()

	eng := ioengine.New(ioengine.Config{Tracer: tracer})
	srv := &echoServer{
		eng:         eng,
		listener:    listener,
		stop:        stopR,
		conns:       make(map[int]*osfd.Handle),
		idleTimeout: cfg.Echo.IdleTimeout(),
	}

	coro.New(srv.watchShutdown).Resume()
	coro.New(srv.acceptLoop).Resume()

	// Signals poke the shutdown pipe so the reactor notices on its own terms.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		_, _ = unix.Write(stopW.FD(), []byte{1})
	}()

	selfTestErr := make(chan error, 1)
	if selfTest > 0 {
		go func() {
			var g errgroup.Group
			for i := 0; i < selfTest; i++ {
				g.Go(func() error { return echoClient(addr, messages) })
			}
			selfTestErr <- g.Wait()
			_, _ = unix.Write(stopW.FD(), []byte{1})
		}()
	}

	color.Green("listening on %s", addr)
	eng.PullAll()
	if err := eng.Close(); err != nil {
		return err
	}

	if selfTest > 0 {
		if err := <-selfTestErr; err != nil {
			return fmt.Errorf("self-test: %w", err)
		}
		color.Green("self-test ok: %d clients x %d messages", selfTest, messages)
	}
	return nil
}

// listenTCP opens a nonblocking IPv4 listening socket.
func listenTCP(addr string) (*osfd.Handle, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	h := osfd.New(fd)
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		h.Close()
		return nil, fmt.Errorf("setsockopt: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
	if ip := tcpAddr.IP.To4(); ip != nil {
		copy(sa.Addr[:], ip)
	}
	if err := unix.Bind(fd, sa); err != nil {
		h.Close()
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		h.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		h.Close()
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	return h, nil
}

// watchShutdown waits on the shutdown pipe, then tears every descriptor
// down. Waits parked on them observe POLLNVAL on the next drain and unwind
// themselves, emptying the engine.
func (s *echoServer) watchShutdown(c *coro.Coroutine) {
	if _, err := s.eng.Poll(c, s.stop.FD(), ioengine.EventIn); err != nil {
		return
	}
	s.listener.Close()
	for _, conn := range s.conns {
		conn.Close()
	}
}

func (s *echoServer) acceptLoop(c *coro.Coroutine) {
	for {
		ev, err := s.eng.Poll(c, s.listener.FD(), ioengine.EventIn)
		if err != nil {
			return // listener torn down or engine closed
		}
		if ev&ioengine.EventIn == 0 {
			continue
		}
		for {
			nfd, _, aerr := unix.Accept(s.listener.FD())
			if aerr != nil {
				if errors.Is(aerr, unix.EAGAIN) {
					break
				}
				return
			}
			if err := unix.SetNonblock(nfd, true); err != nil {
				unix.Close(nfd)
				continue
			}
			conn := osfd.New(nfd)
			s.conns[nfd] = conn
			coro.New(func(c *coro.Coroutine) {
				defer func() {
					delete(s.conns, nfd)
					conn.Close()
				}()
				s.serveConn(c, conn.FD())
			}).Resume()
		}
	}
}

func (s *echoServer) serveConn(c *coro.Coroutine, fd int) {
	buf := make([]byte, 4096)
	for {
		var ev ioengine.Events
		var err error
		if s.idleTimeout > 0 {
			ev, err = s.eng.PollFor(c, fd, ioengine.EventIn, s.idleTimeout)
		} else {
			ev, err = s.eng.Poll(c, fd, ioengine.EventIn)
		}
		if err != nil {
			return // hangup, teardown or engine closed
		}
		if ev&ioengine.EventIn == 0 {
			return // idle timeout
		}
		n, rerr := unix.Read(fd, buf)
		if rerr != nil {
			if errors.Is(rerr, unix.EAGAIN) {
				continue
			}
			return
		}
		if n == 0 {
			return // EOF
		}
		if werr := s.writeAll(c, fd, buf[:n]); werr != nil {
			return
		}
	}
}

// writeAll echoes p back, suspending on writability when the socket buffer
// is full.
func (s *echoServer) writeAll(c *coro.Coroutine, fd int, p []byte) error {
	for len(p) > 0 {
		n, err := unix.Write(fd, p)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				if _, perr := s.eng.Poll(c, fd, ioengine.EventOut); perr != nil {
					return perr
				}
				continue
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

// echoClient dials the server, sends numbered messages and verifies each one
// comes back intact. Runs on an ordinary goroutine with blocking I/O; only
// the server side goes through the engine.
func echoClient(addr string, messages int) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	for i := 0; i < messages; i++ {
		msg := fmt.Sprintf("ping-%d\n", i)
		if _, err := conn.Write([]byte(msg)); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		got := 0
		for got < len(msg) {
			n, err := conn.Read(buf[got:len(msg)])
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			got += n
		}
		if string(buf[:got]) != msg {
			return fmt.Errorf("echo mismatch: sent %q, got %q", msg, string(buf[:got]))
		}
	}
	return nil
}
