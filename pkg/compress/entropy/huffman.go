package entropy

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
)

const (
	// maxCodeLen bounds Huffman code lengths so a code always fits a single
	// PeekBits/ReadBits call.
	maxCodeLen = 24
	lenBits    = 5
	countBits  = 12
	lutBits    = 8
)

// huffCode is one entry of a canonical code table.
type huffCode struct {
	sym  uint16
	len  uint8
	code uint32
}

// node is used for building the Huffman tree
type node struct {
	freq   int
	order  int // tie-break so equal weights merge deterministically
	parent int
}

type nodeHeap struct {
	idx   []int
	nodes []node
}

func (h nodeHeap) Len() int { return len(h.idx) }
func (h nodeHeap) Less(i, j int) bool {
	a, b := h.nodes[h.idx[i]], h.nodes[h.idx[j]]
	if a.freq != b.freq {
		return a.freq < b.freq
	}
	return a.order < b.order
}
func (h nodeHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *nodeHeap) Push(x any)   { h.idx = append(h.idx, x.(int)) }
func (h *nodeHeap) Pop() any {
	old := h.idx
	n := len(old)
	x := old[n-1]
	h.idx = old[:n-1]
	return x
}

// huffLengths computes optimal code lengths for the given frequencies.
func huffLengths(freqs []int) []int {
	n := len(freqs)
	lengths := make([]int, n)
	if n == 1 {
		lengths[0] = 1
		return lengths
	}

	nodes := make([]node, n, 2*n-1)
	h := &nodeHeap{nodes: nodes}
	for i, f := range freqs {
		nodes[i] = node{freq: f, order: i, parent: -1}
		h.idx = append(h.idx, i)
	}
	heap.Init(h)
	for h.Len() > 1 {
		a := heap.Pop(h).(int)
		b := heap.Pop(h).(int)
		p := len(h.nodes)
		h.nodes = append(h.nodes, node{freq: h.nodes[a].freq + h.nodes[b].freq, order: p, parent: -1})
		h.nodes[a].parent = p
		h.nodes[b].parent = p
		heap.Push(h, p)
	}

	for i := 0; i < n; i++ {
		depth := 0
		for p := h.nodes[i].parent; p >= 0; p = h.nodes[p].parent {
			depth++
		}
		lengths[i] = depth
	}
	return lengths
}

// limitedLengths returns Huffman code lengths no longer than maxCodeLen by
// repeatedly flattening the frequency distribution.
func limitedLengths(freqs []int) []int {
	f := append([]int(nil), freqs...)
	for {
		lengths := huffLengths(f)
		longest := 0
		for _, l := range lengths {
			longest = max(longest, l)
		}
		if longest <= maxCodeLen {
			return lengths
		}
		for i := range f {
			f[i] = (f[i] + 1) / 2
		}
	}
}

// buildCodes assigns canonical codes. Entries are sorted by (length, symbol)
// which is also the order they are serialized in.
func buildCodes(syms []uint16, lengths []int) []huffCode {
	codes := make([]huffCode, len(syms))
	for i := range syms {
		codes[i] = huffCode{sym: syms[i], len: uint8(lengths[i])}
	}
	sort.Slice(codes, func(i, j int) bool {
		if codes[i].len != codes[j].len {
			return codes[i].len < codes[j].len
		}
		return codes[i].sym < codes[j].sym
	})

	code := uint32(0)
	si := codes[0].len
	for k := range codes {
		for codes[k].len > si {
			code <<= 1
			si++
		}
		codes[k].code = code
		code++
	}
	return codes
}

// writeTable serializes a canonical table: count, then (symbol, length)
// pairs in canonical order.
func writeTable(w *bitstream.Writer, codes []huffCode) {
	w.WriteBits(uint64(len(codes)), countBits)
	for _, c := range codes {
		w.WriteBits(uint64(c.sym), tokenBits)
		w.WriteBits(uint64(c.len), lenBits)
	}
}

type lutEntry struct {
	len uint8
	sym uint16
}

// decodeTable holds the canonical decoding state (JPEG Annex F style).
type decodeTable struct {
	syms     []uint16
	count    [maxCodeLen + 1]int
	first    [maxCodeLen + 1]uint32 // first code of each length
	firstIdx [maxCodeLen + 1]int    // index into syms of that code
	lut      [1 << lutBits]lutEntry
}

// readTable parses and validates a serialized table.
func readTable(r *bitstream.Reader) (*decodeTable, error) {
	n, err := r.ReadBits(countBits)
	if err != nil {
		return nil, corrupt(err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty code table", ErrCorrupt)
	}

	t := &decodeTable{syms: make([]uint16, n)}
	lengths := make([]uint8, n)
	var kraft uint64
	for i := range t.syms {
		sym, err := r.ReadBits(tokenBits)
		if err != nil {
			return nil, corrupt(err)
		}
		l, err := r.ReadBits(lenBits)
		if err != nil {
			return nil, corrupt(err)
		}
		if l == 0 || l > maxCodeLen {
			return nil, fmt.Errorf("%w: code length %d", ErrCorrupt, l)
		}
		if !validToken(uint16(sym)) {
			return nil, fmt.Errorf("%w: invalid token %#x", ErrCorrupt, sym)
		}
		if i > 0 && (uint8(l) < lengths[i-1] || (uint8(l) == lengths[i-1] && uint16(sym) <= t.syms[i-1])) {
			return nil, fmt.Errorf("%w: code table out of canonical order", ErrCorrupt)
		}
		t.syms[i] = uint16(sym)
		lengths[i] = uint8(l)
		t.count[l]++
		kraft += 1 << (maxCodeLen - l)
	}
	if kraft > 1<<maxCodeLen {
		return nil, fmt.Errorf("%w: over-subscribed code table", ErrCorrupt)
	}

	code := uint32(0)
	idx := 0
	for l := 1; l <= maxCodeLen; l++ {
		t.first[l] = code
		t.firstIdx[l] = idx
		code += uint32(t.count[l])
		idx += t.count[l]
		code <<= 1
	}

	// fast path for short codes
	for i, sym := range t.syms {
		l := int(lengths[i])
		if l > lutBits {
			break
		}
		c := t.first[l] + uint32(i-t.firstIdx[l])
		lo := c << (lutBits - l)
		hi := lo + 1<<(lutBits-l)
		for p := lo; p < hi; p++ {
			t.lut[p] = lutEntry{len: uint8(l), sym: sym}
		}
	}
	return t, nil
}

// decode reads one symbol.
func (t *decodeTable) decode(r *bitstream.Reader) (uint16, error) {
	if r.Remaining() >= lutBits {
		p, _ := r.PeekBits(lutBits)
		if e := t.lut[p]; e.len > 0 {
			_ = r.Skip(int(e.len))
			return e.sym, nil
		}
	}

	code := uint32(0)
	for l := 1; l <= maxCodeLen; l++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, corrupt(err)
		}
		code = code<<1 | uint32(bit)
		if t.count[l] > 0 && code >= t.first[l] && code-t.first[l] < uint32(t.count[l]) {
			return t.syms[t.firstIdx[l]+int(code-t.first[l])], nil
		}
	}
	return 0, fmt.Errorf("%w: invalid code", ErrCorrupt)
}
