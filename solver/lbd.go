package solver

const (
	nbMaxRecent     = 50   // How many recent LBD values we consider
	triggerRestartK = 0.8  // Restart when recent LBDs are that much worse than the global average.
	nbMaxTrail      = 5000 // How many recent trail sizes we consider
	blockRestartR   = 1.4  // Postpone restarts when the trail is that much bigger than usual.
	blockMinConfl   = 10000
)

// window is a fixed-size sliding average.
type window struct {
	vals []int
	ptr  int
	full bool
	sum  int
}

func newWindow(size int) window {
	return window{vals: make([]int, size)}
}

func (w *window) push(val int) {
	w.sum += val - w.vals[w.ptr]
	w.vals[w.ptr] = val
	w.ptr++
	if w.ptr == len(w.vals) {
		w.ptr = 0
		w.full = true
	}
}

func (w *window) avg() float64 {
	n := w.ptr
	if w.full {
		n = len(w.vals)
	}
	if n == 0 {
		return 0
	}
	return float64(w.sum) / float64(n)
}

func (w *window) clear() {
	for i := range w.vals {
		w.vals[i] = 0
	}
	w.ptr, w.sum, w.full = 0, 0, false
}

// lbdStats decides glucose-style restarts from recent LBD and trail sizes.
type lbdStats struct {
	totalNb  int // Total number of LBD values considered
	totalSum int // Sum of all LBD so far
	recent   window
	trail    window
}

func newLbdStats() lbdStats {
	return lbdStats{recent: newWindow(nbMaxRecent), trail: newWindow(nbMaxTrail)}
}

// mustRestart is true iff recent LBDs are much bigger on average than average of all LBDs.
func (l *lbdStats) mustRestart() bool {
	if !l.recent.full {
		return false
	}
	return l.recent.avg()*triggerRestartK > float64(l.totalSum)/float64(l.totalNb)
}

// addConflict records the trail size when a conflict occurred.
// A trail much bigger than usual means the solver may be close to a model: the pending restart is canceled.
func (l *lbdStats) addConflict(trailSz int) {
	if l.totalNb > blockMinConfl && l.recent.full && l.trail.full &&
		float64(trailSz) > blockRestartR*l.trail.avg() {
		l.recent.clear()
	}
	l.trail.push(trailSz)
}

// addLbd adds information about a recent learned clause's LBD.
func (l *lbdStats) addLbd(lbd int) {
	l.totalNb++
	l.totalSum += lbd
	l.recent.push(lbd)
}

// clear clears last values. It should be called after a restart.
func (l *lbdStats) clear() {
	l.recent.clear()
}
