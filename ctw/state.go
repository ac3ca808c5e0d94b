package ctw

import (
	"github.com/karlbackan/gigaverse-bot-sub001/rps"
	"github.com/pkg/errors"
)

// Counts is the JSON shape of a node's per-symbol observation counts.
type Counts struct {
	Rock    int64 `json:"rock"`
	Paper   int64 `json:"paper"`
	Scissor int64 `json:"scissor"`
}

// NodeState is the persisted shape of one context tree node. Children are
// elided when absent, matching the sparse in-memory representation.
type NodeState struct {
	Counts   Counts                `json:"counts"`
	Total    int64                 `json:"total"`
	Pe       float64               `json:"pe"`
	Pw       float64               `json:"pw"`
	Children map[string]*NodeState `json:"children,omitempty"`
}

// State is the persisted shape of a whole Model.
type State struct {
	MaxDepth int      `json:"max_depth"`
	History  []string `json:"history"`
	Root     *NodeState `json:"root"`
}

func symbolName(s rps.Symbol) string { return s.String() }

func nodeToState(n *node) *NodeState {
	ns := &NodeState{
		Counts: Counts{
			Rock:    n.counts[rps.Rock],
			Paper:   n.counts[rps.Paper],
			Scissor: n.counts[rps.Scissor],
		},
		Total: n.total,
		Pe:    n.pe,
		Pw:    n.pw,
	}
	for _, sym := range [rps.NumSymbols]rps.Symbol{rps.Rock, rps.Paper, rps.Scissor} {
		if child := n.children[sym]; child != nil {
			if ns.Children == nil {
				ns.Children = make(map[string]*NodeState, rps.NumSymbols)
			}
			ns.Children[symbolName(sym)] = nodeToState(child)
		}
	}
	return ns
}

func nodeFromState(ns *NodeState) (*node, error) {
	if ns == nil {
		return newNode(), nil
	}
	n := &node{
		counts: [rps.NumSymbols]int64{ns.Counts.Rock, ns.Counts.Paper, ns.Counts.Scissor},
		total:  ns.Total,
		pe:     ns.Pe,
		pw:     ns.Pw,
	}
	for name, childState := range ns.Children {
		sym, err := rps.ParseSymbol(name)
		if err != nil {
			return nil, errors.Wrapf(err, "ctw: node child key %q", name)
		}
		child, err := nodeFromState(childState)
		if err != nil {
			return nil, err
		}
		n.children[sym] = child
	}
	return n, nil
}

// State returns the persisted representation of m.
func (m *Model) State() State {
	history := make([]string, len(m.history))
	for i, s := range m.history {
		history[i] = symbolName(s)
	}
	return State{
		MaxDepth: m.maxDepth,
		History:  history,
		Root:     nodeToState(m.root),
	}
}

// FromState reconstructs a Model from its persisted representation.
func FromState(s State) (*Model, error) {
	if s.MaxDepth < 1 {
		return nil, errors.New("ctw: persisted max_depth must be >= 1")
	}
	root, err := nodeFromState(s.Root)
	if err != nil {
		return nil, errors.Wrap(err, "ctw: decoding root")
	}
	history := make([]rps.Symbol, len(s.History))
	for i, name := range s.History {
		sym, err := rps.ParseSymbol(name)
		if err != nil {
			return nil, errors.Wrapf(err, "ctw: history[%d]", i)
		}
		history[i] = sym
	}
	return &Model{
		maxDepth: s.MaxDepth,
		root:     root,
		history:  history,
	}, nil
}
