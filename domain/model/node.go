package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// NodeID is the stable internal identifier of a node, assigned at creation
// and never reused. External references use the semantic id instead.
type NodeID string

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

// String returns the string representation
func (id NodeID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset
func (id NodeID) IsZero() bool {
	return id == ""
}

// Equals compares two node ids
func (id NodeID) Equals(other NodeID) bool {
	return id == other
}

// Node is a typed element of the architecture model.
type Node struct {
	ID         NodeID     `json:"id"`
	Type       NodeType   `json:"type"`
	SemanticID string     `json:"semanticId"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// NewNode creates a node with a fresh internal id
func NewNode(nodeType NodeType, semanticID string, attrs Attributes) (*Node, error) {
	if !nodeType.IsValid() {
		return nil, errors.New("invalid node type")
	}
	semanticID = strings.TrimSpace(semanticID)
	if semanticID == "" {
		return nil, errors.New("semantic id required")
	}
	return &Node{
		ID:         NewNodeID(),
		Type:       nodeType,
		SemanticID: semanticID,
		Attributes: attrs.Clone(),
	}, nil
}

// Clone returns an independent deep copy of the node
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{
		ID:         n.ID,
		Type:       n.Type,
		SemanticID: n.SemanticID,
		Attributes: n.Attributes.Clone(),
	}
}

// Equal compares identity, type, semantic id and attributes
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.ID == other.ID &&
		n.Type == other.Type &&
		n.SemanticID == other.SemanticID &&
		n.Attributes.Equal(other.Attributes)
}
