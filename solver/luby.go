package solver

// luby returns the ith term (starting at 1) of the Luby sequence 1 1 2 1 1 2 4 1 1 2...
func luby(i uint) uint {
	for k := uint(1); k < 32; k++ {
		if i == (1<<k)-1 {
			return 1 << (k - 1)
		}
	}
	k := uint(1)
	for {
		if (1<<(k-1)) <= i && i < (1<<k)-1 {
			return luby(i - (1 << (k - 1)) + 1)
		}
		k++
	}
}

// restartPolicy decides when the search must restart.
type restartPolicy interface {
	// conflict is called after each conflict; the policy may then ask for a restart.
	conflict(s *Solver)
	// due is true iff a restart must happen now.
	due(s *Solver) bool
	// restarted is called once the restart happened.
	restarted()
}

type lbdRestarts struct{}

func (lbdRestarts) conflict(*Solver)   {}
func (lbdRestarts) due(s *Solver) bool { return s.lbdStats.mustRestart() }
func (lbdRestarts) restarted()         {}

// lubyRestarts restarts after unit*luby(i) conflicts for the ith restart.
type lubyRestarts struct {
	unit  int
	idx   uint
	confl int // Conflicts since last restart
}

func (l *lubyRestarts) conflict(*Solver) { l.confl++ }

func (l *lubyRestarts) due(*Solver) bool {
	return l.confl >= l.unit*int(luby(l.idx+1))
}

func (l *lubyRestarts) restarted() {
	l.idx++
	l.confl = 0
}

type noRestarts struct{}

func (noRestarts) conflict(*Solver) {}
func (noRestarts) due(*Solver) bool { return false }
func (noRestarts) restarted()       {}
