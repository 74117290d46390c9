package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// readTimeout bounds how long a client may take to send its request line.
	readTimeout     = time.Second
	maxRequestBytes = 4096
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers one request per connection until ctx is cancelled or the
// listener is closed. In-flight connections finish before Serve returns.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var conns sync.WaitGroup
	defer conns.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			defer conn.Close()
			writeResponse(conn, serveConn(ctx, conn, handler))
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) Response {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	line, err := bufio.NewReader(&limitedConn{conn: conn, left: maxRequestBytes}).ReadBytes('\n')
	if err != nil {
		return Response{OK: false, Error: fmt.Sprintf("read request: %v", err)}
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)}
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Response{OK: false, Error: "empty command"}
	}

	return handler.Handle(ctx, req)
}

func writeResponse(conn net.Conn, resp Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(readTimeout))
	_ = json.NewEncoder(conn).Encode(resp)
}

// limitedConn fails reads once more than left bytes have been consumed.
type limitedConn struct {
	conn net.Conn
	left int
}

func (l *limitedConn) Read(p []byte) (int, error) {
	if l.left <= 0 {
		return 0, fmt.Errorf("request exceeds %d bytes", maxRequestBytes)
	}
	if len(p) > l.left {
		p = p[:l.left]
	}
	n, err := l.conn.Read(p)
	l.left -= n
	return n, err
}
