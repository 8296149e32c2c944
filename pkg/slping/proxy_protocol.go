package slping

import (
	"fmt"
	"net"

	"github.com/pires/go-proxyproto"
)

// writeProxyProtocolHeader announces the local end of c as the client to
// servers that sit behind a PROXY protocol aware listener.
func writeProxyProtocolHeader(c net.Conn) error {
	rcAddr := c.RemoteAddr()
	tcpAddr, ok := rcAddr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("proxy protocol needs a tcp connection, got %s", rcAddr.Network())
	}

	tp := proxyproto.TCPv4
	if tcpAddr.IP.To4() == nil {
		tp = proxyproto.TCPv6
	}

	header := &proxyproto.Header{
		Version:           2,
		Command:           proxyproto.PROXY,
		TransportProtocol: tp,
		SourceAddr:        c.LocalAddr(),
		DestinationAddr:   rcAddr,
	}

	if _, err := header.WriteTo(c); err != nil {
		return err
	}

	return nil
}
