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

package linker

import (
	"context"
	"strings"

	art "github.com/plar/go-adaptive-radix-tree"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/parser"
	"github.com/tottoto/protox/sourceinfo"
	"github.com/tottoto/protox/walk"
)

// result is the concrete implementation of Result returned by Link. It
// wraps a parser.Result, augmenting it with everything discovered and
// computed while resolving type references across the file and its
// dependencies.
//
// Before resolveReferences completes, the embedded protoreflect.FileDescriptor
// is nil and methods of that interface that would normally delegate to it are
// instead served from localSyms, an index of placeholder descriptors built
// directly from the raw FileDescriptorProto. Once references are resolved, a
// real descriptor is constructed (via protodesc) and descs takes over.
type result struct {
	parser.Result
	protoreflect.FileDescriptor

	deps        Files
	descriptors art.Tree
	usedImports map[string]struct{}
	prefix      string

	optionQualifiedNames map[*ast.IdentValueNode]string
	resolvedReferences   map[protoreflect.Descriptor][]ast.SourcePosInfo

	localSyms   map[protoreflect.FullName]protoreflect.Descriptor
	descs       map[protoreflect.FullName]protoreflect.Descriptor
	rawElements map[protoreflect.FullName]proto.Message

	optIndex     sourceinfo.OptionIndex
	optDescIndex sourceinfo.OptionDescriptorIndex

	astRemoved bool
}

var (
	_ Result                      = (*result)(nil)
	_ File                        = (*result)(nil)
	_ protoreflect.FileDescriptor = (*result)(nil)
)

func (r *result) hasSource() bool {
	return r.AST() != nil
}

// AST shadows the embedded parser.Result's AST method so that RemoveAST can
// make this result report that it has no source, without needing a mutator
// on the parser package's own result type.
func (r *result) AST() *ast.FileNode {
	if r.astRemoved {
		return nil
	}
	return r.Result.AST()
}

// The following overrides let result answer a handful of
// protoreflect.FileDescriptor methods before the real descriptor has been
// built (during resolveReferences), using only the raw FileDescriptorProto
// and the dependency set. Everything else is served by the embedded
// protoreflect.FileDescriptor, which must be non-nil by the time any other
// method is used.

func (r *result) Path() string {
	return r.FileDescriptorProto().GetName()
}

func (r *result) Package() protoreflect.FullName {
	return protoreflect.FullName(strings.TrimSuffix(r.prefix, "."))
}

func (r *result) FullName() protoreflect.FullName {
	return r.Package()
}

func (r *result) Name() protoreflect.Name {
	pkg := r.Package()
	if idx := strings.LastIndexByte(string(pkg), '.'); idx >= 0 {
		return protoreflect.Name(pkg[idx+1:])
	}
	return protoreflect.Name(pkg)
}

func (r *result) Syntax() protoreflect.Syntax {
	switch r.FileDescriptorProto().GetSyntax() {
	case "proto3":
		return protoreflect.Proto3
	default:
		return protoreflect.Proto2
	}
}

func (r *result) ParentFile() protoreflect.FileDescriptor {
	return r
}

func (r *result) Parent() protoreflect.Descriptor {
	return nil
}

func (r *result) Index() int {
	return 0
}

func (r *result) IsPlaceholder() bool {
	return false
}

func (r *result) Options() protoreflect.ProtoMessage {
	if r.FileDescriptor != nil {
		return r.FileDescriptor.Options()
	}
	return r.FileDescriptorProto().GetOptions()
}

func (r *result) Imports() protoreflect.FileImports {
	return resultImports{r: r}
}

type resultImports struct {
	r *result
}

func (fi resultImports) Len() int {
	return len(fi.r.FileDescriptorProto().GetDependency())
}

func (fi resultImports) Get(i int) protoreflect.FileImport {
	fd := fi.r.FileDescriptorProto()
	path := fd.GetDependency()[i]
	imp := protoreflect.FileImport{}
	if dep := fi.r.deps.FindFileByPath(path); dep != nil {
		imp.FileDescriptor = dep
	}
	for _, j := range fd.GetPublicDependency() {
		if int(j) == i {
			imp.IsPublic = true
		}
	}
	for _, j := range fd.GetWeakDependency() {
		if int(j) == i {
			imp.IsWeak = true
		}
	}
	return imp
}

func (fi resultImports) ByPath(path string) protoreflect.FileImport {
	for i := 0; i < fi.Len(); i++ {
		if imp := fi.Get(i); imp.Path() == path {
			return imp
		}
	}
	return protoreflect.FileImport{}
}

// File interface methods.

func (r *result) Dependencies() Files {
	return r.deps
}

func (r *result) FindDescriptorByName(name protoreflect.FullName) protoreflect.Descriptor {
	if r.descs != nil {
		if d, ok := r.descs[name]; ok {
			return d
		}
	}
	return r.localSyms[name]
}

func (r *result) FindImportByPath(path string) File {
	return r.deps.FindFileByPath(path)
}

func (r *result) FindExtensionByNumber(message protoreflect.FullName, tag protoreflect.FieldNumber) protoreflect.ExtensionTypeDescriptor {
	if r.FileDescriptor == nil {
		return nil
	}
	return findExtension(r, message, tag)
}

// ResolveMessageType, ResolveEnumType, and ResolveExtension implement the
// protodesc.Resolver-shaped lookups that other parts of this package need
// (e.g. option interpretation) once a file is fully linked.

func (r *result) ResolveMessageType(name protoreflect.FullName) protoreflect.MessageDescriptor {
	d := r.resolveElement(name)
	if md, ok := d.(protoreflect.MessageDescriptor); ok {
		return md
	}
	return nil
}

func (r *result) ResolveEnumType(name protoreflect.FullName) protoreflect.EnumDescriptor {
	d := r.resolveElement(name)
	if ed, ok := d.(protoreflect.EnumDescriptor); ok {
		return ed
	}
	return nil
}

func (r *result) ResolveExtension(name protoreflect.FullName) protoreflect.ExtensionTypeDescriptor {
	d := r.resolveElement(name)
	ed, ok := d.(protoreflect.FieldDescriptor)
	if !ok || !ed.IsExtension() {
		return nil
	}
	if td, ok := d.(protoreflect.ExtensionTypeDescriptor); ok {
		return td
	}
	return dynamicExtensionType(ed)
}

func (r *result) ResolveMessageLiteralExtensionName(node *ast.IdentValueNode) string {
	return r.optionQualifiedNames[node]
}

// CanonicalProto returns a defensive clone of the linked descriptor proto.
// Unlike bufbuild's ancestor, this does not attempt to re-order or
// de-structure interpreted options into field-literal form; callers that
// need protoc's exact canonical encoding must interpret options themselves
// and re-derive that ordering from the AST.
func (r *result) CanonicalProto() *descriptorpb.FileDescriptorProto {
	return proto.Clone(r.FileDescriptorProto()).(*descriptorpb.FileDescriptorProto)
}

// RemoveAST drops this result's AST reference. The underlying parser.Result
// retains its node indexes (it exposes no mutator for that), but callers
// that only check AST()/hasSource() to decide whether source is available
// will observe it as gone.
func (r *result) RemoveAST() {
	r.astRemoved = true
}

// PopulateSourceCodeInfo computes source code info for the file, using the
// index of interpreted option locations built during option interpretation.
func (r *result) PopulateSourceCodeInfo(index sourceinfo.OptionIndex, descIndex sourceinfo.OptionDescriptorIndex) {
	r.optIndex = index
	r.optDescIndex = descIndex
	r.FileDescriptorProto().SourceCodeInfo = sourceinfo.GenerateSourceInfo(r, index)
}

func (r *result) FindOptionSourceInfo(node *ast.OptionNode) *sourceinfo.OptionSourceInfo {
	if r.optIndex == nil {
		return nil
	}
	return r.optIndex[node]
}

func (r *result) FindOptionNameFieldDescriptor(name *descriptorpb.UninterpretedOption_NamePart) protoreflect.FieldDescriptor {
	return r.optDescIndex.UninterpretedNameDescriptorsToFieldDescriptors[name]
}

func (r *result) FindOptionMessageDescriptor(option *descriptorpb.UninterpretedOption) protoreflect.MessageDescriptor {
	fld := r.optDescIndex.OptionsToFieldDescriptors[option]
	if fld == nil {
		return nil
	}
	if fld.Kind() != protoreflect.MessageKind && fld.Kind() != protoreflect.GroupKind {
		return nil
	}
	return fld.Message()
}

func (r *result) FindFieldDescriptorByFieldReferenceNode(node *ast.FieldReferenceNode) protoreflect.FieldDescriptor {
	return r.optDescIndex.FieldReferenceNodesToFieldDescriptors[node]
}

func (r *result) FindMessageDescriptorByTypeReferenceURLNode(node *ast.FieldReferenceNode) protoreflect.MessageDescriptor {
	return r.optDescIndex.TypeReferenceURLsToMessageDescriptors[node]
}

func (r *result) FindReferences(to protoreflect.Descriptor) []ast.SourcePosInfo {
	return r.resolvedReferences[to]
}

func (r *result) recordReference(to protoreflect.Descriptor, pos ast.SourcePosInfo) {
	if to == nil || isSentinelDescriptor(to) {
		return
	}
	r.resolvedReferences[to] = append(r.resolvedReferences[to], pos)
}

// FindDescriptorsByPrefix returns every descriptor defined in this file whose
// fully-qualified name begins with prefix.
func (r *result) FindDescriptorsByPrefix(ctx context.Context, prefix string) ([]protoreflect.Descriptor, error) {
	var results []protoreflect.Descriptor
	r.descriptors.ForEachPrefix(art.Key(prefix), func(node art.Node) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if d, ok := node.Value().(protoreflect.Descriptor); ok {
			results = append(results, d)
		}
		return true
	})
	return results, ctx.Err()
}

// buildDescriptor constructs the real protoreflect.FileDescriptor for r once
// all type references have been resolved and rewritten to be fully
// qualified. It also indexes every element defined in the file, both for
// File.FindDescriptorByName and for FindDescriptorsByPrefix.
func (r *result) buildDescriptor() error {
	fd, err := protodesc.NewFile(r.FileDescriptorProto(), r.deps.AsResolver())
	if err != nil {
		return err
	}
	r.FileDescriptor = fd
	r.descs = map[protoreflect.FullName]protoreflect.Descriptor{}
	return walk.Descriptors(r, func(d protoreflect.Descriptor) error {
		r.descs[d.FullName()] = d
		r.descriptors.Insert(art.Key(d.FullName()), d)
		return nil
	})
}

func dynamicExtensionType(fld protoreflect.FieldDescriptor) protoreflect.ExtensionTypeDescriptor {
	if extd, ok := fld.(protoreflect.ExtensionTypeDescriptor); ok {
		return extd
	}
	return dynamicpb.NewExtensionType(fld).TypeDescriptor()
}
