package emulator

const (
	HISTORY_LIMIT = 16 // Default number of snapshots kept for undo.
)

// History is a bounded stack of machine snapshots. Pushing onto a full
// history forgets the oldest snapshot.
type History struct {
	Limit int // Maximum depth, HISTORY_LIMIT if zero.
	Data  []*Machine
}

func (h *History) limit() int {
	if h.Limit <= 0 {
		return HISTORY_LIMIT
	}
	return h.Limit
}

func (h *History) Push(mach *Machine) {
	if h.Full() {
		h.Data = append(h.Data[:0], h.Data[1:]...)
	}
	h.Data = append(h.Data, mach)
}

func (h *History) Pop() (mach *Machine, ok bool) {
	mach, ok = h.Peek()
	if ok {
		h.Data[len(h.Data)-1] = nil
		h.Data = h.Data[:len(h.Data)-1]
	}
	return
}

func (h *History) Empty() bool {
	return len(h.Data) == 0
}

func (h *History) Full() bool {
	return len(h.Data) >= h.limit()
}

func (h *History) Peek() (mach *Machine, ok bool) {
	if h.Empty() {
		return
	}

	return h.Data[len(h.Data)-1], true
}

func (h *History) Reset() {
	if len(h.Data) > 0 {
		clear(h.Data)
		h.Data = h.Data[:0]
	}
}
