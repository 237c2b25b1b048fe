package events

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// WriterSink writes each envelope as a single JSON line, prefixed for easy
// filtering from mixed process output.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(env *Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(append([]byte("AUDIT: "), raw...), '\n'))
	return err
}

// MultiSink fans an envelope out to every sink; the first error wins but all
// sinks are attempted.
type MultiSink []Sink

func (m MultiSink) Emit(env *Envelope) error {
	var first error
	for _, s := range m {
		if err := s.Emit(env); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// StreamSink publishes envelopes to a Redis stream so an external indexer
// can consume audit history without polling the in-process log.
type StreamSink struct {
	client *redis.Client
	stream string
}

// NewStreamSink creates a sink publishing to the named Redis stream.
func NewStreamSink(client *redis.Client, stream string) *StreamSink {
	return &StreamSink{client: client, stream: stream}
}

func (s *StreamSink) Emit(env *Envelope) error {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		return err
	}
	return s.client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":       env.ID,
			"sequence": strconv.FormatUint(env.Sequence, 10),
			"time":     strconv.FormatUint(env.Time, 10),
			"name":     env.Name,
			"event":    string(payload),
		},
	}).Err()
}
