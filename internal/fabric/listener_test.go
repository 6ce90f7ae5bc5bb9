package fabric_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/janm-dev/links-go/internal/fabric"
	"github.com/janm-dev/links-go/internal/platform/config"
)

// getFreePort binds to :0, grabs the assigned port, and releases it. The
// port may be reused between close and the real bind, but this is
// acceptable for tests.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("getFreePort: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestListenerAcceptsConnections(t *testing.T) {
	port := getFreePort(t)
	addr := config.ListenerAddress{Protocol: "http", Address: "127.0.0.1", Port: port}

	accepted := make(chan struct{}, 1)
	l, err := fabric.NewListener(context.Background(), addr, func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		accepted <- struct{}{}
	}, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer l.Close()

	conn, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(port), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("acceptor was not invoked")
	}
}

func TestListenerCloseWaitsForAcceptLoop(t *testing.T) {
	port := getFreePort(t)
	addr := config.ListenerAddress{Protocol: "http", Address: "127.0.0.1", Port: port}

	l, err := fabric.NewListener(context.Background(), addr, func(ctx context.Context, conn net.Conn) {
		conn.Close()
	}, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second listener should be able to rebind immediately afterward.
	l2, err := fabric.NewListener(context.Background(), addr, func(ctx context.Context, conn net.Conn) {
		conn.Close()
	}, nil)
	if err != nil {
		t.Fatalf("rebind after Close: %v", err)
	}
	l2.Close()
}
