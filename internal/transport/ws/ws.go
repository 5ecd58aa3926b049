// Package ws - сетевой адаптер транспорта рангов поверх websocket.
// Террейн слушает, остальные ранги подключаются к нему; первый кадр
// соединения - hello с номером ранга пира. По каждому соединению пишет
// ровно одна горутина (мьютекс на записи), чтение блокирующее.
package ws

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"x-terrain/internal/transport"
)

// Подменяется в тестах.
var exitFunc = os.Exit

type link struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (l *link) write(buf []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteMessage(websocket.BinaryMessage, buf)
}

// Conn - соединение ранга с его пирами.
type Conn struct {
	self  int
	links map[int]*link
	log   *log.Logger
}

var _ transport.Conn = (*Conn)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Listen поднимает слушатель на addr и ждет подключения всех пиров из
// peers. Возвращает готовое соединение, когда все hello получены.
func Listen(addr string, self int, peers []int, logger *log.Logger) (*Conn, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ws: listen %s: %w", addr, err)
	}

	expected := make(map[int]bool, len(peers))
	for _, p := range peers {
		expected[p] = true
	}

	c := &Conn{self: self, links: make(map[int]*link), log: logger}

	var mu sync.Mutex
	done := make(chan struct{})

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wc, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade: %v", err)
			return
		}

		// Первый кадр - hello с рангом пира.
		_, buf, err := wc.ReadMessage()
		if err != nil {
			wc.Close()
			return
		}
		f, err := decodeFrame(buf)
		if err != nil || f.kind != transport.KindHello {
			logger.Printf("ожидался hello, соединение закрыто")
			wc.Close()
			return
		}
		rank := int(f.tag)

		mu.Lock()
		if !expected[rank] || c.links[rank] != nil {
			mu.Unlock()
			logger.Printf("неожиданный ранг %d, соединение закрыто", rank)
			wc.Close()
			return
		}
		c.links[rank] = &link{conn: wc}
		logger.Printf("ранг %d подключен (%s)", rank, wc.RemoteAddr())
		if len(c.links) == len(expected) {
			close(done)
		}
		mu.Unlock()
	})}

	go srv.Serve(ln)
	<-done
	ln.Close()

	return c, nil
}

// Dial подключает ранг self к слушающему рангу peer по адресу url.
func Dial(url string, self, peer int, logger *log.Logger) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	wc, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", url, err)
	}
	if err := wc.WriteMessage(websocket.BinaryMessage, encodeControl(transport.KindHello, self)); err != nil {
		wc.Close()
		return nil, fmt.Errorf("ws: hello: %w", err)
	}
	return &Conn{
		self:  self,
		links: map[int]*link{peer: {conn: wc}},
		log:   logger,
	}, nil
}

func (c *Conn) peerLink(peer int) (*link, error) {
	l, ok := c.links[peer]
	if !ok {
		return nil, fmt.Errorf("ws: нет соединения с рангом %d", peer)
	}
	return l, nil
}

// recv читает следующий кадр от пира и проверяет его тип и тег.
// Аварийный кадр завершает процесс немедленно.
func (c *Conn) recv(peer, tag int, kind transport.Kind) (frame, error) {
	l, err := c.peerLink(peer)
	if err != nil {
		return frame{}, err
	}
	_, buf, err := l.conn.ReadMessage()
	if err != nil {
		return frame{}, fmt.Errorf("ws: чтение от ранга %d: %w", peer, err)
	}
	f, err := decodeFrame(buf)
	if err != nil {
		return frame{}, err
	}
	if f.kind == transport.KindAbort {
		c.log.Printf("получен abort от ранга %d, код %d", peer, f.tag)
		exitFunc(int(f.tag))
	}
	if f.kind != kind || int(f.tag) != tag {
		return frame{}, fmt.Errorf("ws: от ранга %d ожидался кадр kind=%d tag=%d, получен kind=%d tag=%d",
			peer, kind, tag, f.kind, f.tag)
	}
	return f, nil
}

func (c *Conn) SendDoubles(peer, tag int, data []float64) error {
	l, err := c.peerLink(peer)
	if err != nil {
		return err
	}
	return l.write(encodeDoubles(tag, data))
}

func (c *Conn) RecvDoubles(peer, tag, n int) ([]float64, error) {
	f, err := c.recv(peer, tag, transport.KindDoubles)
	if err != nil {
		return nil, err
	}
	out := f.doubles()
	if n >= 0 && len(out) != n {
		return nil, fmt.Errorf("ws: ожидалось %d double, получено %d", n, len(out))
	}
	return out, nil
}

func (c *Conn) SendInts(peer, tag int, data []int32) error {
	l, err := c.peerLink(peer)
	if err != nil {
		return err
	}
	return l.write(encodeInts(tag, data))
}

func (c *Conn) RecvInts(peer, tag, n int) ([]int32, error) {
	f, err := c.recv(peer, tag, transport.KindInts)
	if err != nil {
		return nil, err
	}
	out := f.ints()
	if n >= 0 && len(out) != n {
		return nil, fmt.Errorf("ws: ожидалось %d int, получено %d", n, len(out))
	}
	return out, nil
}

func (c *Conn) SendUints(peer, tag int, data []uint32) error {
	l, err := c.peerLink(peer)
	if err != nil {
		return err
	}
	return l.write(encodeUints(tag, data))
}

func (c *Conn) RecvUints(peer, tag, n int) ([]uint32, error) {
	f, err := c.recv(peer, tag, transport.KindUints)
	if err != nil {
		return nil, err
	}
	out := f.uints()
	if n >= 0 && len(out) != n {
		return nil, fmt.Errorf("ws: ожидалось %d uint, получено %d", n, len(out))
	}
	return out, nil
}

func (c *Conn) SendFloats(peer, tag int, data []float32) error {
	l, err := c.peerLink(peer)
	if err != nil {
		return err
	}
	return l.write(encodeFloats(tag, data))
}

func (c *Conn) RecvFloats(peer, tag, n int) ([]float32, error) {
	f, err := c.recv(peer, tag, transport.KindFloats)
	if err != nil {
		return nil, err
	}
	out := f.floats()
	if n >= 0 && len(out) != n {
		return nil, fmt.Errorf("ws: ожидалось %d float, получено %d", n, len(out))
	}
	return out, nil
}

// Abort рассылает аварийный кадр всем пирам и завершает процесс.
func (c *Conn) Abort(code int) {
	for rank, l := range c.links {
		if err := l.write(encodeControl(transport.KindAbort, code)); err != nil {
			c.log.Printf("abort для ранга %d: %v", rank, err)
		}
	}
	c.Close()
	exitFunc(code)
}

func (c *Conn) Close() error {
	for _, l := range c.links {
		l.conn.Close()
	}
	return nil
}
