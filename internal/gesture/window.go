package gesture

// Window is a fixed-capacity FIFO of screen points backed by a ring buffer.
// Pushing onto a full window overwrites the oldest sample in place.
type Window struct {
	buf  []Point
	head int // index of the oldest sample
	n    int
}

// NewWindow creates a Window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]Point, capacity)}
}

// Len returns the number of samples held.
func (w *Window) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Push appends p, evicting the oldest sample when full.
func (w *Window) Push(p Point) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = p
		w.n++
		return
	}
	w.buf[w.head] = p
	w.head = (w.head + 1) % len(w.buf)
}

// Clear drops all samples and keeps the capacity.
func (w *Window) Clear() {
	w.head = 0
	w.n = 0
}

// Resize changes the capacity, keeping the newest min(Len, capacity) samples.
func (w *Window) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(w.buf) {
		return
	}

	keep := w.n
	if keep > capacity {
		keep = capacity
	}

	buf := make([]Point, capacity)
	for i := 0; i < keep; i++ {
		buf[i] = w.at(w.n - keep + i)
	}
	w.buf = buf
	w.head = 0
	w.n = keep
}

// Samples returns the samples oldest first.
func (w *Window) Samples() []Point {
	out := make([]Point, w.n)
	for i := range out {
		out[i] = w.at(i)
	}
	return out
}

// Mean returns the unweighted average of the samples.
func (w *Window) Mean() Point {
	if w.n == 0 {
		return Point{}
	}
	var sx, sy float64
	for i := 0; i < w.n; i++ {
		p := w.at(i)
		sx += p.X
		sy += p.Y
	}
	return Point{X: sx / float64(w.n), Y: sy / float64(w.n)}
}

// WeightedMean averages the samples with weights rising linearly from 0.5
// for the oldest to 1.0 for the newest, normalized to sum to 1.
func (w *Window) WeightedMean() Point {
	if w.n < 2 {
		return w.Mean()
	}
	var sx, sy, sw float64
	for i := 0; i < w.n; i++ {
		weight := 0.5 + 0.5*float64(i)/float64(w.n-1)
		p := w.at(i)
		sx += p.X * weight
		sy += p.Y * weight
		sw += weight
	}
	return Point{X: sx / sw, Y: sy / sw}
}

// at returns the i-th sample counting from the oldest.
func (w *Window) at(i int) Point {
	return w.buf[(w.head+i)%len(w.buf)]
}
