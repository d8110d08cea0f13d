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

// Package prototest holds assertion helpers shared by tests that compare
// generated descriptors against an expected proto.Message or descriptor set.
package prototest

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/linker"
	"github.com/tottoto/protox/protoutil"
)

// LoadDescriptorSet reads a serialized FileDescriptorSet from path, resolving
// any extensions in its options against res.
func LoadDescriptorSet(t *testing.T, path string, res linker.Resolver) *descriptorpb.FileDescriptorSet {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fdset descriptorpb.FileDescriptorSet
	err = proto.UnmarshalOptions{Resolver: res}.Unmarshal(data, &fdset)
	require.NoError(t, err)
	return &fdset
}

// CheckFiles asserts that act, and optionally its transitive imports, match
// the corresponding entries (by path) in expSet.
func CheckFiles(t *testing.T, act protoreflect.FileDescriptor, expSet *descriptorpb.FileDescriptorSet, recursive bool) {
	t.Helper()
	checkFiles(t, act, expSet, recursive, map[string]struct{}{})
}

func checkFiles(t *testing.T, act protoreflect.FileDescriptor, expSet *descriptorpb.FileDescriptorSet, recursive bool, checked map[string]struct{}) {
	t.Helper()
	if _, ok := checked[act.Path()]; ok {
		return
	}
	checked[act.Path()] = struct{}{}

	expProto := findFileInSet(expSet, act.Path())
	actProto := protoutil.ProtoFromFileDescriptor(act)
	if diff := cmp.Diff(expProto, actProto, protocmp.Transform()); diff != "" {
		t.Errorf("file descriptor mismatch for %s (-want +got):\n%v", act.Path(), diff)
	}

	if recursive {
		for i := 0; i < act.Imports().Len(); i++ {
			checkFiles(t, act.Imports().Get(i), expSet, true, checked)
		}
	}
}

func findFileInSet(fdset *descriptorpb.FileDescriptorSet, name string) *descriptorpb.FileDescriptorProto {
	for _, fd := range fdset.GetFile() {
		if fd.GetName() == name {
			return fd
		}
	}
	return nil
}

// AssertMessagesEqual reports whether exp and act are equal protobuf
// messages, logging a diff (prefixed with path) and failing t if not. It
// returns whether the messages were equal, so callers can follow up with
// extra diagnostics (such as writing the actual contents to disk) only on
// mismatch.
func AssertMessagesEqual(t *testing.T, exp, act proto.Message, path string) bool {
	t.Helper()
	diff := cmp.Diff(exp, act, protocmp.Transform())
	if diff == "" {
		return true
	}
	t.Errorf("%s: message mismatch (-want +got):\n%v", path, diff)
	return false
}
