package dgram

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status is the outcome of a single non-blocking socket operation.
type Status int

const (
	OK Status = iota
	// WouldBlock means no datagram was queued (receive) or no buffer space
	// was available (send). It is not an error.
	WouldBlock
	Failed
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case WouldBlock:
		return "would-block"
	default:
		return "failed"
	}
}

// SendResult is returned by SendTo.
type SendResult struct {
	Status Status
	Err    error
}

// RecvResult is returned by Recv. N and From are set when Status is OK.
type RecvResult struct {
	Status Status
	N      int
	From   *net.UDPAddr
	Err    error
}

// Socket is a connectionless UDP socket whose send and receive never wait.
type Socket struct {
	conn  *net.UDPConn
	raw   syscall.RawConn
	inet6 bool
}

// Listen binds a UDP socket on addr, e.g. ":0".
func Listen(addr string) (*Socket, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := &Socket{conn: conn, raw: raw}
	var nameErr error
	err = raw.Control(func(fd uintptr) {
		sa, err := unix.Getsockname(int(fd))
		if err != nil {
			nameErr = err
			return
		}
		_, s.inet6 = sa.(*unix.SockaddrInet6)
	})
	if err == nil {
		err = nameErr
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return s, nil
}

// LocalAddr returns the bound address.
func (s *Socket) LocalAddr() string {
	if s == nil || s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}

// Close closes the socket.
func (s *Socket) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SendTo attempts one send of b to addr.
func (s *Socket) SendTo(b []byte, addr *net.UDPAddr) SendResult {
	sa, err := s.sockaddr(addr)
	if err != nil {
		return SendResult{Status: Failed, Err: err}
	}

	var sendErr error
	err = s.raw.Write(func(fd uintptr) bool {
		for {
			sendErr = unix.Sendto(int(fd), b, unix.MSG_DONTWAIT, sa)
			if sendErr != unix.EINTR {
				return true
			}
		}
	})
	if err != nil {
		return SendResult{Status: Failed, Err: err}
	}
	switch {
	case sendErr == nil:
		return SendResult{Status: OK}
	case wouldBlock(sendErr):
		return SendResult{Status: WouldBlock}
	default:
		return SendResult{Status: Failed, Err: sendErr}
	}
}

// Recv attempts one receive into buf.
func (s *Socket) Recv(buf []byte) RecvResult {
	var (
		n       int
		from    unix.Sockaddr
		recvErr error
	)
	err := s.raw.Read(func(fd uintptr) bool {
		for {
			n, from, recvErr = unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT)
			if recvErr != unix.EINTR {
				return true
			}
		}
	})
	if err != nil {
		return RecvResult{Status: Failed, Err: err}
	}
	switch {
	case recvErr == nil:
		return RecvResult{Status: OK, N: n, From: udpAddr(from)}
	case wouldBlock(recvErr):
		return RecvResult{Status: WouldBlock}
	default:
		return RecvResult{Status: Failed, Err: recvErr}
	}
}

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func (s *Socket) sockaddr(addr *net.UDPAddr) (unix.Sockaddr, error) {
	if addr == nil {
		return nil, errors.New("nil address")
	}
	if !s.inet6 {
		ip4 := addr.IP.To4()
		if ip4 == nil {
			return nil, fmt.Errorf("%s: IPv6 destination on an IPv4 socket", addr)
		}
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip16 := addr.IP.To16()
	if ip16 == nil {
		return nil, fmt.Errorf("%s: invalid IP", addr)
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip16)
	return sa, nil
}

func udpAddr(sa unix.Sockaddr) *net.UDPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(a.Addr[:]).To16(), Port: a.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.Addr[:])
		return &net.UDPAddr{IP: ip, Port: a.Port}
	}
	return nil
}
