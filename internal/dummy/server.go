package dummy

import (
	"fmt"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"steadyudp/internal/wire"
)

// Reply modes
const (
	// ModeEcho answers with the request value widened to 64 bits.
	ModeEcho = "echo"
	// ModeSquare answers with the square of the request value.
	ModeSquare = "square"
	// ModeCounter answers with the number of requests served so far.
	ModeCounter = "counter"
)

type ServerConfig struct {
	Addr string
	Mode string

	// Delay before each reply, plus up to Jitter extra.
	Delay  time.Duration
	Jitter time.Duration
	// DropRate is the probability (0..1) of not answering a request.
	DropRate float64
}

// Server answers every 4-byte request with one 8-byte reply.
type Server struct {
	cfg  ServerConfig
	conn *net.UDPConn

	served  uint64
	dropped uint64
}

// Start binds the server and serves in the background.
func Start(cfg ServerConfig) (*Server, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeEcho
	}
	switch cfg.Mode {
	case ModeEcho, ModeSquare, ModeCounter:
	default:
		return nil, fmt.Errorf("unknown reply mode %q", cfg.Mode)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, conn: conn}
	go s.serve()
	return s, nil
}

// LocalAddr returns the bound address.
func (s *Server) LocalAddr() string {
	if s == nil || s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}

// Served returns the number of replies written.
func (s *Server) Served() uint64 { return atomic.LoadUint64(&s.served) }

// Dropped returns the number of requests deliberately left unanswered.
func (s *Server) Dropped() uint64 { return atomic.LoadUint64(&s.dropped) }

// Close stops the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Server) serve() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		v, err := wire.DecodeRequest(buf[:n])
		if err != nil {
			continue
		}
		if s.cfg.DropRate > 0 && rand.Float64() < s.cfg.DropRate {
			atomic.AddUint64(&s.dropped, 1)
			continue
		}

		reply := wire.EncodeReply(s.answer(v))
		if d := s.delay(); d > 0 {
			go func() {
				time.Sleep(d)
				s.write(reply, addr)
			}()
			continue
		}
		s.write(reply, addr)
	}
}

func (s *Server) write(reply []byte, addr *net.UDPAddr) {
	if _, err := s.conn.WriteToUDP(reply, addr); err == nil {
		atomic.AddUint64(&s.served, 1)
	}
}

func (s *Server) answer(v uint32) uint64 {
	switch s.cfg.Mode {
	case ModeSquare:
		return uint64(v) * uint64(v)
	case ModeCounter:
		return atomic.LoadUint64(&s.served) + 1
	default:
		return uint64(v)
	}
}

func (s *Server) delay() time.Duration {
	d := s.cfg.Delay
	if s.cfg.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	return d
}
