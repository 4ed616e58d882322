package ipc

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Framer moves whole envelopes over some transport.
type Framer interface {
	ReadEnvelope() (Envelope, error)
	WriteEnvelope(Envelope) error
	Close() error
	RemoteAddr() string
}

// StreamFramer frames envelopes with a length prefix over a byte stream,
// typically a unix domain socket.
type StreamFramer struct {
	conn net.Conn
}

func NewStreamFramer(conn net.Conn) *StreamFramer {
	return &StreamFramer{conn: conn}
}

func (f *StreamFramer) ReadEnvelope() (Envelope, error)  { return ReadEnvelope(f.conn) }
func (f *StreamFramer) WriteEnvelope(env Envelope) error { return WriteEnvelope(f.conn, env) }
func (f *StreamFramer) Close() error                     { return f.conn.Close() }

// RemoteAddr may be empty: unix socket peers are usually unnamed.
func (f *StreamFramer) RemoteAddr() string {
	if a := f.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// WSFramer carries one envelope per websocket text message.
type WSFramer struct {
	conn *websocket.Conn
	// ReadTimeout is reset before every read; zero disables it.
	ReadTimeout time.Duration
}

func NewWSFramer(conn *websocket.Conn) *WSFramer {
	conn.SetReadLimit(MaxFrame)
	return &WSFramer{conn: conn, ReadTimeout: 60 * time.Second}
}

func (f *WSFramer) ReadEnvelope() (Envelope, error) {
	if f.ReadTimeout > 0 {
		_ = f.conn.SetReadDeadline(time.Now().Add(f.ReadTimeout))
	}
	_, msg, err := f.conn.ReadMessage()
	if err != nil {
		return Envelope{}, fmt.Errorf("read message: %w", err)
	}
	return decodeEnvelope(msg)
}

func (f *WSFramer) WriteEnvelope(env Envelope) error {
	_ = f.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := f.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (f *WSFramer) Close() error       { return f.conn.Close() }
func (f *WSFramer) RemoteAddr() string { return f.conn.RemoteAddr().String() }

// WSHandler upgrades HTTP requests and hands each websocket to serve, which
// owns it until it returns.
func WSHandler(serve func(Framer)) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // host bridge runs locally
	}
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		serve(NewWSFramer(conn))
	}
}

// DialWS connects to a controller's websocket endpoint, as the host bridge does.
func DialWS(url string) (*WSFramer, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSFramer(conn), nil
}
