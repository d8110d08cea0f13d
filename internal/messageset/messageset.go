// Copyright 2020-2023 Buf Technologies, Inc.
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

// Package messageset reports whether the proto runtime this binary links
// against can represent the legacy proto1 messageset wire format.
package messageset

// CanSupportMessageSets reports whether google.golang.org/protobuf's message
// representation can round-trip the legacy messageset wire format, which
// stores extension fields keyed by type ID rather than field number. The
// dynamic message implementation used by the options interpreter has
// supported this since its initial release, so this is always true.
func CanSupportMessageSets() bool {
	return true
}
