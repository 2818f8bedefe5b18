package app

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/session"
)

// Preview holds the latest annotated JPEG frame and wakes waiting readers
// when a new one is published.
type Preview struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	changed chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{changed: make(chan struct{})}
}

// Publish draws the status overlay on a copy of frame, encodes it as JPEG
// and stores it. frame itself is not modified.
func (p *Preview) Publish(frame *gocv.Mat, res *session.FrameResult) error {
	if frame == nil || frame.Empty() {
		return fmt.Errorf("empty frame")
	}

	annotated := frame.Clone()
	defer annotated.Close()
	if res != nil {
		drawOverlay(&annotated, res)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.Set(data)
	return nil
}

// Set stores an already encoded JPEG.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the current JPEG and its sequence number. The sequence is
// zero before anything has been published.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next blocks until a frame newer than after is available or ctx ends.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after {
			jpeg, seq := p.jpeg, p.seq
			p.mu.Unlock()
			return jpeg, seq, nil
		}
		changed := p.changed
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-changed:
		}
	}
}
