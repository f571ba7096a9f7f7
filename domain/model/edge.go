package model

import "errors"

// EdgeKey is the identity of an edge: at most one edge of a given kind may
// exist between an ordered pair of nodes.
type EdgeKey struct {
	SourceID NodeID   `json:"sourceId"`
	TargetID NodeID   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// String renders the key for logs and error messages
func (k EdgeKey) String() string {
	return k.SourceID.String() + "->" + k.TargetID.String() + ":" + string(k.Kind)
}

// Edge is a typed relation between two nodes.
type Edge struct {
	SourceID   NodeID     `json:"sourceId"`
	TargetID   NodeID     `json:"targetId"`
	Kind       EdgeKind   `json:"kind"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// NewEdge creates an edge between two node ids
func NewEdge(sourceID, targetID NodeID, kind EdgeKind, attrs Attributes) (*Edge, error) {
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, errors.New("edge endpoints required")
	}
	if !kind.IsValid() {
		return nil, errors.New("invalid edge kind")
	}
	return &Edge{
		SourceID:   sourceID,
		TargetID:   targetID,
		Kind:       kind,
		Attributes: attrs.Clone(),
	}, nil
}

// Key returns the edge's identity
func (e *Edge) Key() EdgeKey {
	return EdgeKey{SourceID: e.SourceID, TargetID: e.TargetID, Kind: e.Kind}
}

// Clone returns an independent deep copy of the edge
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	return &Edge{
		SourceID:   e.SourceID,
		TargetID:   e.TargetID,
		Kind:       e.Kind,
		Attributes: e.Attributes.Clone(),
	}
}

// Equal compares identity and attributes
func (e *Edge) Equal(other *Edge) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Key() == other.Key() && e.Attributes.Equal(other.Attributes)
}
