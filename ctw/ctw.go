// Package ctw implements a ternary Context Tree Weighting model: a
// variable-order Markov predictor over the rock/paper/scissor alphabet,
// Bayesian-averaged across all context depths up to a configured maximum.
//
// The tree shape and the bottom-up recomputation of node probabilities on
// every update follow the binary Context Tree Weighting implementation in
// github.com/fumin/ctw; the arithmetic itself is the plain-probability KT
// estimator of the predictor spec rather than that package's log-space
// sequential probability, since here we need a closed-form next-symbol
// distribution at every node rather than a bitstream coder's total
// sequence probability.
package ctw

import (
	"math"

	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// underflowThreshold and rescaleFactor implement the numerical guard:
// when a node's pe drops below underflowThreshold, that node's pe alone is
// multiplied by rescaleFactor, and its pw is then recomputed from the
// rescaled pe and its children's pw. No other node on the path is
// rescaled, so pe/pw magnitudes are not kept on a common scale across
// nodes. Predict and PredictWeighted read only the counts, so the rescale
// does not change any returned distribution.
const (
	underflowThreshold = 1e-100
	rescaleFactor      = 1e100
)

// node is one suffix in the context tree.
type node struct {
	counts   [rps.NumSymbols]int64
	total    int64
	pe       float64
	pw       float64
	children [rps.NumSymbols]*node
}

func newNode() *node {
	return &node{pe: 1, pw: 1}
}

// ktProb returns the Krichevsky-Trofimov next-symbol estimate at this node,
// i.e. (count[s]+0.5)/(total+1.5), for every symbol.
func (n *node) ktProb() rps.Distribution {
	denom := float64(n.total) + 1.5
	return rps.Distribution{
		rps.Rock:    (float64(n.counts[rps.Rock]) + 0.5) / denom,
		rps.Paper:   (float64(n.counts[rps.Paper]) + 0.5) / denom,
		rps.Scissor: (float64(n.counts[rps.Scissor]) + 0.5) / denom,
	}
}

func (n *node) hasChildren() bool {
	for _, c := range n.children {
		if c != nil {
			return true
		}
	}
	return false
}

func (n *node) recomputePW() {
	if !n.hasChildren() {
		n.pw = n.pe
		return
	}
	prod := 1.0
	for _, c := range n.children {
		if c != nil {
			prod *= c.pw
		}
	}
	n.pw = 0.5*n.pe + 0.5*prod
}

// Model is a ternary Context Tree Weighting predictor for one symbol
// stream (one opponent's moves).
type Model struct {
	maxDepth int
	root     *node
	history  []rps.Symbol
}

// New creates a Model whose context tree descends at most maxDepth levels.
// maxDepth must be >= 1.
func New(maxDepth int) *Model {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Model{
		maxDepth: maxDepth,
		root:     newNode(),
	}
}

// MaxDepth returns the configured tree depth.
func (m *Model) MaxDepth() int { return m.maxDepth }

// History returns the observed symbol history, most recent last.
func (m *Model) History() []rps.Symbol {
	out := make([]rps.Symbol, len(m.history))
	copy(out, m.history)
	return out
}

// currentContext returns the last min(maxDepth, len(history)) symbols,
// oldest first - the active context of the tree.
func (m *Model) currentContext() []rps.Symbol {
	n := m.maxDepth
	if n > len(m.history) {
		n = len(m.history)
	}
	return m.history[len(m.history)-n:]
}

// Update incorporates one observation. Traversal walks the current context
// most-recent-first, extending the tree as needed; pe at each visited node
// is updated using the KT probability computed from pre-update counts,
// counts are then incremented, and pw is recomputed bottom-up along the
// same path. Unknown symbols are rejected without mutating any state; the
// caller is responsible for the "log once per opponent, never panic"
// policy described in the predictor spec, since that policy is scoped to
// an opponent, not to a single tree.
func (m *Model) Update(s rps.Symbol) error {
	if !s.Valid() {
		return errors.Wrapf(rps.ErrBadSymbol, "ctw update: %v", s)
	}

	context := m.currentContext()
	path := make([]*node, 0, len(context)+1)

	cur := m.root
	path = append(path, cur)
	applyKT(cur, s)

	for d := 0; d < len(context); d++ {
		sym := context[len(context)-1-d]
		child := cur.children[sym]
		if child == nil {
			child = newNode()
			cur.children[sym] = child
		}
		cur = child
		applyKT(cur, s)
		path = append(path, cur)
	}

	for i := len(path) - 1; i >= 0; i-- {
		path[i].recomputePW()
	}

	m.history = append(m.history, s)
	maxHistory := 10 * m.maxDepth
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	return nil
}

// applyKT updates pe at n using pre-update counts, rescaling if pe would
// otherwise risk underflow, then increments the counts for s.
func applyKT(n *node, s rps.Symbol) {
	kt := n.ktProb()
	n.pe *= kt[s]
	if n.pe > 0 && n.pe < underflowThreshold {
		n.pe *= rescaleFactor
	}
	n.counts[s]++
	n.total++
}

// Predict returns the distribution at the deepest node reachable by
// walking the current context from the root. With zero history this is
// uniform. This is the predictor the teacher's getBestMove-equivalent
// caller should use.
func (m *Model) Predict() rps.Distribution {
	if len(m.history) == 0 {
		return rps.Uniform()
	}
	context := m.currentContext()
	cur := m.root
	for d := 0; d < len(context); d++ {
		sym := context[len(context)-1-d]
		child := cur.children[sym]
		if child == nil {
			break
		}
		cur = child
	}
	return cur.ktProb()
}

// PredictWeighted combines the KT distribution at every node on the
// current context path, weighting each by 0.5^(depth from the deepest
// reached node) * (node.total + 1), then normalizing. This is the
// predictor the spec reserves for ensemble blending.
func (m *Model) PredictWeighted() rps.Distribution {
	if len(m.history) == 0 {
		return rps.Uniform()
	}
	context := m.currentContext()
	nodes := make([]*node, 0, len(context)+1)
	cur := m.root
	nodes = append(nodes, cur)
	for d := 0; d < len(context); d++ {
		sym := context[len(context)-1-d]
		child := cur.children[sym]
		if child == nil {
			break
		}
		cur = child
		nodes = append(nodes, cur)
	}

	deepest := len(nodes) - 1
	var combined rps.Distribution
	var weightSum float64
	for depth, n := range nodes {
		weight := math.Pow(0.5, float64(deepest-depth)) * (float64(n.total) + 1)
		kt := n.ktProb()
		combined[rps.Rock] += weight * kt[rps.Rock]
		combined[rps.Paper] += weight * kt[rps.Paper]
		combined[rps.Scissor] += weight * kt[rps.Scissor]
		weightSum += weight
	}
	if weightSum == 0 {
		return rps.Uniform()
	}
	return rps.Distribution{
		combined[rps.Rock] / weightSum,
		combined[rps.Paper] / weightSum,
		combined[rps.Scissor] / weightSum,
	}
}

// Reset zeroes the tree and history, retaining maxDepth.
func (m *Model) Reset() {
	m.root = newNode()
	m.history = nil
}
