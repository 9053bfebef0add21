package proxy

import (
	"net"
	"time"

	"emperror.dev/errors"
	"golang.org/x/net/ipv4"
)

const ntpPacketSize = 48

// NewNTPConnection returns a relay which sends a raw NTP packet to host and
// returns the raw answer.
func NewNTPConnection(
	Host string,
	Protocol string,
	Port string,
	LocalAddress string,
	TTL int,
	Timeout time.Duration) func(data []byte) ([]byte, error) {
	if Timeout == 0 {
		Timeout = 5 * time.Second
	}
	if Protocol == "" {
		Protocol = "udp"
	}
	if Port == "" {
		Port = "123"
	}

	return func(data []byte) ([]byte, error) {
		if len(data) < ntpPacketSize {
			return nil, errors.Errorf("ntp packet too short: %d bytes", len(data))
		}
		raddr, err := net.ResolveUDPAddr(Protocol, net.JoinHostPort(Host, Port))
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve ntp server %s", Host)
		}

		var laddr *net.UDPAddr
		if LocalAddress != "" {
			laddr, err = net.ResolveUDPAddr(Protocol, net.JoinHostPort(LocalAddress, "0"))
			if err != nil {
				return nil, errors.Wrapf(err, "cannot resolve local address %s", LocalAddress)
			}
		}
		con, err := net.DialUDP(Protocol, laddr, raddr)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot dial ntp server %s", raddr)
		}
		defer con.Close()

		if TTL != 0 {
			if err := ipv4.NewConn(con).SetTTL(TTL); err != nil {
				return nil, errors.Wrap(err, "cannot set ttl")
			}
		}

		if err := con.SetDeadline(time.Now().Add(Timeout)); err != nil {
			return nil, errors.WithStack(err)
		}
		if _, err := con.Write(data); err != nil {
			return nil, errors.Wrap(err, "cannot send ntp query")
		}
		recvMsg := make([]byte, len(data))
		n, err := con.Read(recvMsg)
		if err != nil {
			return nil, errors.Wrap(err, "cannot read ntp response")
		}
		return recvMsg[:n], nil
	}
}
