package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a map that remembers key insertion order. It encodes to a
// JSON object or YAML mapping with keys in that order.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]*V
}

// NewOrderedMap returns an empty map.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]*V)}
}

// Upsert returns the accumulator for k, inserting init() first if k is new.
// The pointer stays valid for the life of the map.
func (m *OrderedMap[K, V]) Upsert(k K, init func() V) *V {
	if p, ok := m.values[k]; ok {
		return p
	}
	v := init()
	m.keys = append(m.keys, k)
	m.values[k] = &v
	return &v
}

// Set assigns v to k, appending k if new.
func (m *OrderedMap[K, V]) Set(k K, v V) {
	*m.Upsert(k, func() V { return v }) = v
}

// Get returns the value for k.
func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	p, ok := m.values[k]
	if !ok {
		var zero V
		return zero, false
	}
	return *p, true
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in insertion order.
func (m *OrderedMap[K, V]) Each(fn func(K, V)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, *m.values[k])
	}
}

// Update calls fn with a mutable pointer to every entry in insertion order.
func (m *OrderedMap[K, V]) Update(fn func(K, *V)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// MarshalJSON encodes the map as an object in insertion order.
func (m *OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fmt.Sprint(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(*m.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode %v: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the map as a mapping node in insertion order.
func (m *OrderedMap[K, V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m == nil {
		return node, nil
	}
	for _, k := range m.keys {
		var val yaml.Node
		if err := val.Encode(*m.values[k]); err != nil {
			return nil, fmt.Errorf("encode %v: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(k)},
			&val,
		)
	}
	return node, nil
}
