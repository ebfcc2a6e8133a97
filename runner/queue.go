package runner

import (
	conq "github.com/enriquebris/goconcurrentqueue"
)

type fifo interface {
	Enqueue(*Run) error
	Dequeue() (*Run, error)
	GetLen() int
}

type conqFIFO struct {
	conq.FIFO
}

func newConqFIFO() *conqFIFO {
	return &conqFIFO{
		FIFO: *conq.NewFIFO(),
	}
}

func (c *conqFIFO) Enqueue(r *Run) error {
	return c.FIFO.Enqueue(r)
}

func (c *conqFIFO) Dequeue() (*Run, error) {
	tmp, err := c.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*Run), nil
}

func (c *conqFIFO) GetLen() int {
	return c.FIFO.GetLen()
}
