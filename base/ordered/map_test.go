// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ordered

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap[string, int]()
	m.Store("c", 3)
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("a", 10)

	var keys []string
	var values []int
	for k, v := range m.Iter() {
		keys = append(keys, k)
		values = append(values, v)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 10, 2}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if m.Size() != 3 {
		t.Errorf("Size() = %d, want 3", m.Size())
	}
}

func TestMapLoad(t *testing.T) {
	m := NewMap[string, int]()
	m.Store("x", 1)
	if v, ok := m.Load("x"); v != 1 || !ok {
		t.Errorf("Load('x') = %v, %v, want 1, true", v, ok)
	}
	if v, ok := m.Load("y"); v != 0 || ok {
		t.Errorf("Load('y') = %v, %v, want 0, false", v, ok)
	}
}
