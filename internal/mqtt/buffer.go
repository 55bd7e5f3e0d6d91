package mqtt

import "log"

// bufferedMsg is a serialized message waiting for a connection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that drops its oldest message when full.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	buf     []bufferedMsg
	head    int // next write position
	count   int
	dropped int // since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	size := len(r.buf)
	if r.count == size {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", size)
		}
		r.dropped++
	} else {
		r.count++
	}
	// When full, head already points at the oldest message.
	r.buf[r.head] = msg
	r.head = (r.head + 1) % size
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	size := len(r.buf)
	start := (r.head - r.count + size) % size
	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[(start+i)%size]
	}

	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while offline", r.dropped)
	}
	r.count = 0
	r.head = 0
	r.dropped = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
