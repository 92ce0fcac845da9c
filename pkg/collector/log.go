package collector

import (
	"sync"
	"time"
)

// Param is one name=value pair of a received hit, in arrival order
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hit is a hit as received by the collector
type Hit struct {
	ID       uint64    `json:"id"`
	Received time.Time `json:"received"`
	Params   []Param   `json:"params"`
}

// Get returns the first value of name, or "" if the hit does not carry it
func (h Hit) Get(name string) string {
	for _, p := range h.Params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Type returns the hit type parameter, "unknown" when missing
func (h Hit) Type() string {
	if t := h.Get("type"); t != "" {
		return t
	}
	return "unknown"
}

// Log keeps the most recent hits in a fixed size ring
type Log struct {
	mu    sync.RWMutex
	ring  []Hit
	start int
	count int
	seq   uint64
	clock func() time.Time
}

// NewLog creates a log holding at most size hits
func NewLog(size int) *Log {
	if size < 1 {
		size = 1
	}
	return &Log{
		ring:  make([]Hit, size),
		clock: time.Now,
	}
}

// Add records a hit, evicting the oldest one when full
func (l *Log) Add(params []Param) Hit {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	hit := Hit{ID: l.seq, Received: l.clock(), Params: params}

	if l.count < len(l.ring) {
		l.ring[(l.start+l.count)%len(l.ring)] = hit
		l.count++
	} else {
		l.ring[l.start] = hit
		l.start = (l.start + 1) % len(l.ring)
	}
	return hit
}

// Recent returns up to limit of the newest hits, oldest first, keeping only
// those of hitType when it is not empty. A limit <= 0 means no limit.
func (l *Log) Recent(limit int, hitType string) []Hit {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Hit
	for i := l.count - 1; i >= 0; i-- {
		hit := l.ring[(l.start+i)%len(l.ring)]
		if hitType != "" && hit.Type() != hitType {
			continue
		}
		out = append(out, hit)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of hits held
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Clear drops every hit. Ids keep increasing.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring = make([]Hit, len(l.ring))
	l.start = 0
	l.count = 0
}
