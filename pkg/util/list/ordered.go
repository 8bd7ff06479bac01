// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package list

// Ordered is a keyed list: values keep the position they were inserted at and
// are reachable by key in O(1). Keys are unique.
//
// Ordered is not safe for concurrent use.
type Ordered[K comparable, V any] struct {
	head, tail *node[K, V]
	nodes      map[K]*node[K, V]
}

type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

func NewOrdered[K comparable, V any]() *Ordered[K, V] {
	return &Ordered[K, V]{nodes: make(map[K]*node[K, V])}
}

func (o *Ordered[K, V]) Len() int {
	return len(o.nodes)
}

func (o *Ordered[K, V]) Has(key K) bool {
	_, ok := o.nodes[key]
	return ok
}

func (o *Ordered[K, V]) Get(key K) (V, bool) {
	n, ok := o.nodes[key]
	if !ok {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Set overwrites the value of an existing key in place. It returns false,
// leaving o unchanged, when key is absent.
func (o *Ordered[K, V]) Set(key K, value V) bool {
	n, ok := o.nodes[key]
	if !ok {
		return false
	}
	n.value = value
	return true
}

// PushBack appends key. It returns false when key is already present.
func (o *Ordered[K, V]) PushBack(key K, value V) bool {
	if o.Has(key) {
		return false
	}
	o.link(&node[K, V]{key: key, value: value}, o.tail)
	return true
}

// PushFront prepends key. It returns false when key is already present.
func (o *Ordered[K, V]) PushFront(key K, value V) bool {
	if o.Has(key) {
		return false
	}
	o.link(&node[K, V]{key: key, value: value}, nil)
	return true
}

// InsertAfter places key right after mark. It returns false when key is
// already present or mark is missing.
func (o *Ordered[K, V]) InsertAfter(mark, key K, value V) bool {
	at, ok := o.nodes[mark]
	if !ok || o.Has(key) {
		return false
	}
	o.link(&node[K, V]{key: key, value: value}, at)
	return true
}

// Remove unlinks key and returns its value.
func (o *Ordered[K, V]) Remove(key K) (V, bool) {
	n, ok := o.nodes[key]
	if !ok {
		var zero V
		return zero, false
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		o.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		o.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(o.nodes, key)
	return n.value, true
}

// Iter calls fn in list order until fn returns false.
func (o *Ordered[K, V]) Iter(fn func(K, V) bool) {
	for n := o.head; n != nil; n = n.next {
		if !fn(n.key, n.value) {
			return
		}
	}
}

func (o *Ordered[K, V]) Keys() []K {
	keys := make([]K, 0, o.Len())
	for n := o.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

func (o *Ordered[K, V]) Values() []V {
	values := make([]V, 0, o.Len())
	for n := o.head; n != nil; n = n.next {
		values = append(values, n.value)
	}
	return values
}

// link puts n after at, or at the head when at is nil.
func (o *Ordered[K, V]) link(n, at *node[K, V]) {
	if at == nil {
		n.next = o.head
		if o.head != nil {
			o.head.prev = n
		}
		o.head = n
	} else {
		n.prev = at
		n.next = at.next
		if at.next != nil {
			at.next.prev = n
		}
		at.next = n
	}
	if n.next == nil {
		o.tail = n
	}
	o.nodes[n.key] = n
}
