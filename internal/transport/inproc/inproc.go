// Package inproc - внутрипроцессный адаптер транспорта на каналах.
// Используется в тестах и в однопроцессных прогонах: семантика та же,
// что у сетевого адаптера - блокирующие тегированные сообщения
// точка-точка.
package inproc

import (
	"fmt"
	"os"

	"x-terrain/internal/transport"
)

type frame struct {
	kind    transport.Kind
	tag     int
	doubles []float64
	ints    []int32
	uints   []uint32
	floats  []float32
}

// Network - полный граф каналов между рангами. Буфер каналов позволяет
// тестам заранее загрузить входящие сообщения и читать исходящие после
// вызова, не поднимая горутин.
type Network struct {
	links map[[2]int]chan frame

	// OnAbort, если задан, вызывается вместо os.Exit.
	OnAbort func(code int)
}

func NewNetwork(ranks int) *Network {
	n := &Network{links: make(map[[2]int]chan frame)}
	for from := 0; from < ranks; from++ {
		for to := 0; to < ranks; to++ {
			if from != to {
				n.links[[2]int{from, to}] = make(chan frame, 1024)
			}
		}
	}
	return n
}

// Endpoint возвращает соединение от имени ранга rank.
func (n *Network) Endpoint(rank int) *Conn {
	return &Conn{net: n, rank: rank}
}

type Conn struct {
	net  *Network
	rank int
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) send(peer int, f frame) error {
	ch, ok := c.net.links[[2]int{c.rank, peer}]
	if !ok {
		return fmt.Errorf("inproc: нет канала %d -> %d", c.rank, peer)
	}
	ch <- f
	return nil
}

func (c *Conn) recv(peer, tag int, kind transport.Kind) (frame, error) {
	ch, ok := c.net.links[[2]int{peer, c.rank}]
	if !ok {
		return frame{}, fmt.Errorf("inproc: нет канала %d -> %d", peer, c.rank)
	}
	f := <-ch
	if f.kind != kind || f.tag != tag {
		return frame{}, fmt.Errorf("inproc: ожидался кадр kind=%d tag=%d, получен kind=%d tag=%d",
			kind, tag, f.kind, f.tag)
	}
	return f, nil
}

func (c *Conn) SendDoubles(peer, tag int, data []float64) error {
	return c.send(peer, frame{kind: transport.KindDoubles, tag: tag, doubles: data})
}

func (c *Conn) RecvDoubles(peer, tag, n int) ([]float64, error) {
	f, err := c.recv(peer, tag, transport.KindDoubles)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(f.doubles) != n {
		return nil, fmt.Errorf("inproc: ожидалось %d double, получено %d", n, len(f.doubles))
	}
	return f.doubles, nil
}

func (c *Conn) SendInts(peer, tag int, data []int32) error {
	return c.send(peer, frame{kind: transport.KindInts, tag: tag, ints: data})
}

func (c *Conn) RecvInts(peer, tag, n int) ([]int32, error) {
	f, err := c.recv(peer, tag, transport.KindInts)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(f.ints) != n {
		return nil, fmt.Errorf("inproc: ожидалось %d int, получено %d", n, len(f.ints))
	}
	return f.ints, nil
}

func (c *Conn) SendUints(peer, tag int, data []uint32) error {
	return c.send(peer, frame{kind: transport.KindUints, tag: tag, uints: data})
}

func (c *Conn) RecvUints(peer, tag, n int) ([]uint32, error) {
	f, err := c.recv(peer, tag, transport.KindUints)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(f.uints) != n {
		return nil, fmt.Errorf("inproc: ожидалось %d uint, получено %d", n, len(f.uints))
	}
	return f.uints, nil
}

func (c *Conn) SendFloats(peer, tag int, data []float32) error {
	return c.send(peer, frame{kind: transport.KindFloats, tag: tag, floats: data})
}

func (c *Conn) RecvFloats(peer, tag, n int) ([]float32, error) {
	f, err := c.recv(peer, tag, transport.KindFloats)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(f.floats) != n {
		return nil, fmt.Errorf("inproc: ожидалось %d float, получено %d", n, len(f.floats))
	}
	return f.floats, nil
}

func (c *Conn) Abort(code int) {
	if c.net.OnAbort != nil {
		c.net.OnAbort(code)
		return
	}
	os.Exit(code)
}

func (c *Conn) Close() error { return nil }
