package proxy

// blockRegistry tracks open Claude content-block indices for one stream:
// indices are a monotonic, never-reused prefix of the naturals; text and
// thinking are mutually exclusive open blocks; tool-call blocks are routed
// by the upstream's own tool_calls[] index.
type blockRegistry struct {
	next int
	// openOrder records indices in the order they were opened, so finish
	// can close them in reverse order.
	openOrder []int

	textThinkingIndex int // -1 when none open
	textThinkingKind  string

	toolIndex map[int]int // upstream tool_calls[].index -> local block index
}

func newBlockRegistry() *blockRegistry {
	return &blockRegistry{textThinkingIndex: -1, toolIndex: map[int]int{}}
}

func (r *blockRegistry) allocate() int {
	i := r.next
	r.next++
	r.openOrder = append(r.openOrder, i)
	return i
}

// close removes index from the open set; it is idempotent.
func (r *blockRegistry) close(index int) {
	for i, v := range r.openOrder {
		if v == index {
			r.openOrder = append(r.openOrder[:i], r.openOrder[i+1:]...)
			return
		}
	}
}

// closeAll returns every still-open index, most recently opened first, for
// finish's shutdown sequence, and marks them all closed.
func (r *blockRegistry) closeAll() []int {
	order := make([]int, len(r.openOrder))
	for i, v := range r.openOrder {
		order[len(order)-1-i] = v
	}
	r.openOrder = nil
	r.textThinkingIndex = -1
	return order
}
