package mqtt

import "testing"

func msg(n int) bufferedMsg {
	return bufferedMsg{topic: TopicScore, payload: []byte{byte(n)}, qos: 1}
}

func payloads(msgs []bufferedMsg) []int {
	out := make([]int, len(msgs))
	for i, m := range msgs {
		out[i] = int(m.payload[0])
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRingBufferKeepsNewest(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		pushed      int
		wantKept    []int
		wantDropped int
	}{
		{"empty", 3, 0, nil, 0},
		{"under capacity", 3, 2, []int{0, 1}, 0},
		{"exactly full", 3, 3, []int{0, 1, 2}, 0},
		{"one over", 3, 4, []int{1, 2, 3}, 1},
		{"wrapped twice", 3, 8, []int{5, 6, 7}, 5},
		{"single slot", 1, 4, []int{3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.size)
			for i := 0; i < tt.pushed; i++ {
				rb.push(msg(i))
			}
			if rb.dropped != tt.wantDropped {
				t.Errorf("dropped: got %d, want %d", rb.dropped, tt.wantDropped)
			}

			got := rb.drainAll()
			if tt.wantKept == nil {
				if got != nil {
					t.Errorf("expected nil drain, got %v", payloads(got))
				}
				return
			}
			if !equalInts(payloads(got), tt.wantKept) {
				t.Errorf("kept: got %v, want %v", payloads(got), tt.wantKept)
			}
		})
	}
}

// An outage that overflows, then a clean one: the drop count belongs to
// the first outage only and ordering restarts from the oldest message.
func TestRingBufferSeparateOutages(t *testing.T) {
	rb := newRingBuffer(2)

	for i := 0; i < 5; i++ {
		rb.push(msg(i))
	}
	if got := payloads(rb.drainAll()); !equalInts(got, []int{3, 4}) {
		t.Fatalf("first outage: got %v", got)
	}
	if rb.dropped != 0 || rb.len() != 0 {
		t.Fatalf("expected reset after drain: dropped=%d len=%d", rb.dropped, rb.len())
	}

	rb.push(msg(10))
	if rb.dropped != 0 {
		t.Errorf("second outage counted %d drops", rb.dropped)
	}
	if got := payloads(rb.drainAll()); !equalInts(got, []int{10}) {
		t.Errorf("second outage: got %v", got)
	}
}

func TestRingBufferLenCapsAtSize(t *testing.T) {
	rb := newRingBuffer(3)
	for i := 0; i < 10; i++ {
		rb.push(msg(i))
		want := i + 1
		if want > 3 {
			want = 3
		}
		if rb.len() != want {
			t.Fatalf("after %d pushes: len %d, want %d", i+1, rb.len(), want)
		}
	}
}

func TestRingBufferKeepsMessageFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte(`{"system":{}}`), qos: 1, retained: true})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != `{"system":{}}` || m.qos != 1 || !m.retained {
		t.Errorf("fields changed in buffer: %+v", m)
	}
}
