/******************************************************************************************[Heap.h]
Copyright (c) 2003-2006, Niklas Een, Niklas Sorensson
Copyright (c) 2007-2010, Niklas Sorensson

Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
associated documentation files (the "Software"), to deal in the Software without restriction,
including without limitation the rights to use, copy, modify, merge, publish, distribute,
sublicense, and/or sell copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all copies or
substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM,
DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT
OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
**************************************************************************************************/

package solver

// varOrder is a heap of variables, the most active one on top.
// It is strongly inspired from Minisat's mtl/Heap.h.
// The heap can grow as the solver discovers new variables.
type varOrder struct {
	activity *[]float64 // The solver's activity slice, followed when it is reallocated.
	heap     []Var
	pos      []int // Position of each var in heap; -1 means absence.
}

func newVarOrder(activity *[]float64) varOrder {
	return varOrder{activity: activity}
}

func (o *varOrder) before(v, w Var) bool {
	act := *o.activity
	return act[v] > act[w]
}

func heapLeft(i int) int   { return i*2 + 1 }
func heapRight(i int) int  { return (i + 1) * 2 }
func heapParent(i int) int { return (i - 1) >> 1 }

func (o *varOrder) up(i int) {
	v := o.heap[i]
	for i != 0 {
		p := heapParent(i)
		if !o.before(v, o.heap[p]) {
			break
		}
		o.heap[i] = o.heap[p]
		o.pos[o.heap[i]] = i
		i = p
	}
	o.heap[i] = v
	o.pos[v] = i
}

func (o *varOrder) down(i int) {
	v := o.heap[i]
	for heapLeft(i) < len(o.heap) {
		child := heapLeft(i)
		if r := heapRight(i); r < len(o.heap) && o.before(o.heap[r], o.heap[child]) {
			child = r
		}
		if !o.before(o.heap[child], v) {
			break
		}
		o.heap[i] = o.heap[child]
		o.pos[o.heap[i]] = i
		i = child
	}
	o.heap[i] = v
	o.pos[v] = i
}

func (o *varOrder) empty() bool { return len(o.heap) == 0 }

func (o *varOrder) contains(v Var) bool {
	return int(v) < len(o.pos) && o.pos[v] >= 0
}

// bumped must be called when v's activity increased.
func (o *varOrder) bumped(v Var) {
	if o.contains(v) {
		o.up(o.pos[v])
	}
}

func (o *varOrder) insert(v Var) {
	for len(o.pos) <= int(v) {
		o.pos = append(o.pos, -1)
	}
	o.pos[v] = len(o.heap)
	o.heap = append(o.heap, v)
	o.up(o.pos[v])
}

func (o *varOrder) removeMax() Var {
	v := o.heap[0]
	last := o.heap[len(o.heap)-1]
	o.heap = o.heap[:len(o.heap)-1]
	o.pos[v] = -1
	if len(o.heap) > 0 {
		o.heap[0] = last
		o.pos[last] = 0
		o.down(0)
	}
	return v
}
