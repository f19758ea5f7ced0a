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

package ir

import "fmt"

// VName is an internal variable name: a base name for readability plus an
// integer tag making the name unique within a compilation.
type VName struct {
	Base string
	Tag  int
}

// String returns the name with its tag appended.
func (v VName) String() string {
	return fmt.Sprintf("%s_%d", v.Base, v.Tag)
}

// NameSource issues fresh names. Tags increase monotonically, so a name
// returned by Fresh can never collide with a name issued earlier or later
// from the same source. A source must not be shared between concurrent
// passes.
type NameSource struct {
	next int
}

// NewNameSource returns a source whose first tag is seed. The seed must be
// larger than any tag already used by the stage that produced the input
// program.
func NewNameSource(seed int) *NameSource {
	return &NameSource{next: seed}
}

// Fresh returns a new unique name built on the given base name.
func (s *NameSource) Fresh(base string) VName {
	tag := s.next
	s.next++
	return VName{Base: base, Tag: tag}
}
