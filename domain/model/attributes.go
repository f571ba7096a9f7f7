package model

// Attribute is a single key/value pair on a node or edge. Values are scalar
// strings; typed interpretation is left to consumers.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attributes is an ordered mapping of attribute keys to scalar values.
// Order is preserved for rendering; lookups go through Get.
type Attributes []Attribute

// Get returns the value for key and whether it was present
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Set updates the value for key in place, appending when absent.
// The original insertion order of existing keys is preserved.
func (a Attributes) Set(key, value string) Attributes {
	for i, attr := range a {
		if attr.Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attribute{Key: key, Value: value})
}

// Delete removes key, preserving the order of the remaining entries
func (a Attributes) Delete(key string) Attributes {
	for i, attr := range a {
		if attr.Key == key {
			return append(a[:i:i], a[i+1:]...)
		}
	}
	return a
}

// Clone returns an independent copy
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Equal compares two attribute mappings key-by-key. Order does not affect
// equality; only the key set and the values matter, which is what the diff
// engine's modified-node detection needs.
func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	for _, attr := range a {
		v, ok := other.Get(attr.Key)
		if !ok || v != attr.Value {
			return false
		}
	}
	return true
}
