package engine

import "sync"

// pcmQueue is the decode-ahead ring between the decode goroutine and the
// speaker. The speaker side never blocks: an underrun is rendered as silence.
type pcmQueue struct {
	mu     sync.Mutex
	ring   [][2]float64
	head   int
	size   int
	base   int // source frame of the last reset
	played int // frames rendered since base
	done   bool

	space chan struct{}
}

func newPCMQueue(capacity int) *pcmQueue {
	return &pcmQueue{
		ring:  make([][2]float64, max(capacity, 1)),
		space: make(chan struct{}, 1),
	}
}

// push appends as many frames as fit and returns how many were taken.
func (q *pcmQueue) push(frames [][2]float64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(q.ring)-q.size, len(frames))
	for i := range n {
		q.ring[(q.head+q.size+i)%len(q.ring)] = frames[i]
	}
	q.size += n
	return n
}

// Stream implements beep.Streamer.
func (q *pcmQueue) Stream(samples [][2]float64) (int, bool) {
	q.mu.Lock()
	n := min(q.size, len(samples))
	for i := range n {
		samples[i] = q.ring[(q.head+i)%len(q.ring)]
	}
	q.head = (q.head + n) % len(q.ring)
	q.size -= n
	q.played += n
	done := q.done && q.size == 0
	q.mu.Unlock()

	if n > 0 {
		select {
		case q.space <- struct{}{}:
		default:
		}
	}

	if done {
		return n, n > 0
	}
	clear(samples[n:])
	return len(samples), true
}

func (q *pcmQueue) Err() error { return nil }

// finish marks the decoder as drained; the stream ends once the ring empties.
func (q *pcmQueue) finish() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
}

func (q *pcmQueue) finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// reset drops queued audio after a seek to source frame base.
func (q *pcmQueue) reset(base int) {
	q.mu.Lock()
	q.head, q.size = 0, 0
	q.base, q.played = base, 0
	q.done = false
	q.mu.Unlock()
}

// position returns the source frame being rendered.
func (q *pcmQueue) position() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.base + q.played
}

// level returns the queued audio as a percentage of prebuffer frames.
func (q *pcmQueue) level(prebuffer int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done || prebuffer <= 0 {
		return 100
	}
	return min(100, q.size*100/prebuffer)
}
