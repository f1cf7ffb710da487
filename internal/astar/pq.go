package astar

// pqItem is one entry of the A* priority queue: a candidate RouteNode and
// the total path cost it was pushed with.
type pqItem struct {
	node int32
	cost float64
}

// nodeHeap is a container/heap.Interface over pqItem ordered by ascending
// cost, backing the Connection Router's open set (§4.2).
type nodeHeap []pqItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(pqItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
