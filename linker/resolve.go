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
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/protointernal"
	"github.com/tottoto/protox/reporter"
)

// provisionalMessage, provisionalEnum, provisionalField, and
// provisionalGeneric stand in for elements defined in the file currently
// being linked, for which no real protoreflect descriptor exists yet (that
// is the whole point of this pass). They carry just enough behavior for the
// handful of type assertions and accessor calls that reference resolution
// itself performs; anything else promoted from the embedded, nil interface
// is not safe to call and is not exercised by this package.
type provisionalMessage struct {
	protoreflect.MessageDescriptor
	r   *result
	fqn protoreflect.FullName
	msg *descriptorpb.DescriptorProto
}

func (m *provisionalMessage) FullName() protoreflect.FullName        { return m.fqn }
func (m *provisionalMessage) ParentFile() protoreflect.FileDescriptor { return m.r }
func (m *provisionalMessage) IsMapEntry() bool                        { return m.msg.GetOptions().GetMapEntry() }
func (m *provisionalMessage) ExtensionRanges() protoreflect.FieldRanges {
	return extRanges{s: m.msg.GetExtensionRange()}
}

type provisionalEnum struct {
	protoreflect.EnumDescriptor
	r   *result
	fqn protoreflect.FullName
}

func (e *provisionalEnum) FullName() protoreflect.FullName        { return e.fqn }
func (e *provisionalEnum) ParentFile() protoreflect.FileDescriptor { return e.r }

type provisionalField struct {
	protoreflect.FieldDescriptor
	fqn   protoreflect.FullName
	isExt bool
}

func (f *provisionalField) FullName() protoreflect.FullName { return f.fqn }
func (f *provisionalField) IsExtension() bool                { return f.isExt }

// provisionalGeneric stands in for oneofs, enum values, services, and
// methods: elements that resolveFieldTypes/resolveOptions never need to
// inspect beyond their name.
type provisionalGeneric struct {
	protoreflect.Descriptor
	fqn protoreflect.FullName
}

func (g *provisionalGeneric) FullName() protoreflect.FullName { return g.fqn }

// extRanges adapts a raw slice of extension range protos to
// protoreflect.FieldRanges.
type extRanges struct {
	protoreflect.FieldRanges
	s []*descriptorpb.DescriptorProto_ExtensionRange
}

func (e extRanges) Len() int { return len(e.s) }

func (e extRanges) Get(i int) [2]protoreflect.FieldNumber {
	r := e.s[i]
	return [2]protoreflect.FieldNumber{protoreflect.FieldNumber(r.GetStart()), protoreflect.FieldNumber(r.GetEnd())}
}

func (e extRanges) Has(n protoreflect.FieldNumber) bool {
	for _, r := range e.s {
		if r.GetStart() <= int32(n) && r.GetEnd() > int32(n) {
			return true
		}
	}
	return false
}

// buildLocalSymbols indexes every element declared in this file, keyed by
// fully-qualified name, using the provisional placeholder types above. This
// runs once, up front, before any type references are rewritten, so that
// self-referential fields (a message that refers to itself, or to a sibling
// defined later in the file) can be resolved just like a reference into an
// already-linked dependency.
func (r *result) buildLocalSymbols() {
	r.localSyms = map[protoreflect.FullName]protoreflect.Descriptor{}

	var addMessage func(prefix string, msg *descriptorpb.DescriptorProto)
	var addEnum func(prefix string, en *descriptorpb.EnumDescriptorProto)

	addEnum = func(prefix string, en *descriptorpb.EnumDescriptorProto) {
		fqn := protoreflect.FullName(prefix + en.GetName())
		r.localSyms[fqn] = &provisionalEnum{r: r, fqn: fqn}
		for _, v := range en.GetValue() {
			vfqn := protoreflect.FullName(prefix + v.GetName())
			r.localSyms[vfqn] = &provisionalGeneric{fqn: vfqn}
		}
	}

	addMessage = func(prefix string, msg *descriptorpb.DescriptorProto) {
		fqn := protoreflect.FullName(prefix + msg.GetName())
		r.localSyms[fqn] = &provisionalMessage{r: r, fqn: fqn, msg: msg}
		childPrefix := string(fqn) + "."
		for _, fld := range msg.GetField() {
			ffqn := protoreflect.FullName(childPrefix + fld.GetName())
			r.localSyms[ffqn] = &provisionalField{fqn: ffqn}
		}
		for _, oo := range msg.GetOneofDecl() {
			ofqn := protoreflect.FullName(childPrefix + oo.GetName())
			r.localSyms[ofqn] = &provisionalGeneric{fqn: ofqn}
		}
		for _, nested := range msg.GetNestedType() {
			addMessage(childPrefix, nested)
		}
		for _, en := range msg.GetEnumType() {
			addEnum(childPrefix, en)
		}
		for _, ext := range msg.GetExtension() {
			efqn := protoreflect.FullName(childPrefix + ext.GetName())
			r.localSyms[efqn] = &provisionalField{fqn: efqn, isExt: true}
		}
	}

	fd := r.FileDescriptorProto()
	for _, msg := range fd.GetMessageType() {
		addMessage(r.prefix, msg)
	}
	for _, en := range fd.GetEnumType() {
		addEnum(r.prefix, en)
	}
	for _, ext := range fd.GetExtension() {
		efqn := protoreflect.FullName(r.prefix + ext.GetName())
		r.localSyms[efqn] = &provisionalField{fqn: efqn, isExt: true}
	}
	for _, svc := range fd.GetService() {
		sfqn := protoreflect.FullName(r.prefix + svc.GetName())
		r.localSyms[sfqn] = &provisionalGeneric{fqn: sfqn}
		for _, mtd := range svc.GetMethod() {
			mfqn := protoreflect.FullName(string(sfqn) + "." + mtd.GetName())
			r.localSyms[mfqn] = &provisionalGeneric{fqn: mfqn}
		}
	}
}

// rawElementByName returns the raw descriptor proto declared in this file
// under the given fully-qualified name (the same pointer the parser indexed
// for AST lookups), building the index on first use. Unlike the real,
// protodesc-built descriptor tree, these pointers are stable across linking:
// resolution only rewrites fields of these messages in place, never
// replaces them.
func (r *result) rawElementByName(name protoreflect.FullName) proto.Message {
	if r.rawElements == nil {
		r.rawElements = map[protoreflect.FullName]proto.Message{}
		_ = walkDescriptorProtos(r.FileDescriptorProto(),
			func(fqn protoreflect.FullName, d proto.Message) error {
				r.rawElements[fqn] = d
				return nil
			}, nil)
	}
	return r.rawElements[name]
}

// walkDescriptorProtos traverses the raw descriptor proto tree rooted at fd,
// invoking enter when first visiting each message/field/oneof/enum/enum
// value/service/method and exit (if non-nil) after visiting its children.
// This mirrors the shape of walk.Descriptors but runs directly over
// FileDescriptorProto, since type resolution rewrites fields in place before
// a real protoreflect.FileDescriptor can be constructed.
func walkDescriptorProtos(fd *descriptorpb.FileDescriptorProto, enter, exit func(protoreflect.FullName, proto.Message) error) error {
	prefix := fd.GetPackage()
	if prefix != "" {
		prefix += "."
	}
	for _, msg := range fd.GetMessageType() {
		if err := walkMessage(prefix, msg, enter, exit); err != nil {
			return err
		}
	}
	for _, en := range fd.GetEnumType() {
		if err := walkEnum(prefix, en, enter, exit); err != nil {
			return err
		}
	}
	for _, ext := range fd.GetExtension() {
		fqn := protoreflect.FullName(prefix + ext.GetName())
		if err := enter(fqn, ext); err != nil {
			return err
		}
		if exit != nil {
			if err := exit(fqn, ext); err != nil {
				return err
			}
		}
	}
	for _, svc := range fd.GetService() {
		fqn := protoreflect.FullName(prefix + svc.GetName())
		if err := enter(fqn, svc); err != nil {
			return err
		}
		for _, mtd := range svc.GetMethod() {
			mfqn := protoreflect.FullName(string(fqn) + "." + mtd.GetName())
			if err := enter(mfqn, mtd); err != nil {
				return err
			}
			if exit != nil {
				if err := exit(mfqn, mtd); err != nil {
					return err
				}
			}
		}
		if exit != nil {
			if err := exit(fqn, svc); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkMessage(prefix string, msg *descriptorpb.DescriptorProto, enter, exit func(protoreflect.FullName, proto.Message) error) error {
	fqn := protoreflect.FullName(prefix + msg.GetName())
	if err := enter(fqn, msg); err != nil {
		return err
	}
	childPrefix := string(fqn) + "."
	for _, fld := range msg.GetField() {
		ffqn := protoreflect.FullName(childPrefix + fld.GetName())
		if err := enter(ffqn, fld); err != nil {
			return err
		}
		if exit != nil {
			if err := exit(ffqn, fld); err != nil {
				return err
			}
		}
	}
	for _, oo := range msg.GetOneofDecl() {
		ofqn := protoreflect.FullName(childPrefix + oo.GetName())
		if err := enter(ofqn, oo); err != nil {
			return err
		}
		if exit != nil {
			if err := exit(ofqn, oo); err != nil {
				return err
			}
		}
	}
	for _, nested := range msg.GetNestedType() {
		if err := walkMessage(childPrefix, nested, enter, exit); err != nil {
			return err
		}
	}
	for _, en := range msg.GetEnumType() {
		if err := walkEnum(childPrefix, en, enter, exit); err != nil {
			return err
		}
	}
	for _, ext := range msg.GetExtension() {
		efqn := protoreflect.FullName(childPrefix + ext.GetName())
		if err := enter(efqn, ext); err != nil {
			return err
		}
		if exit != nil {
			if err := exit(efqn, ext); err != nil {
				return err
			}
		}
	}
	if exit != nil {
		if err := exit(fqn, msg); err != nil {
			return err
		}
	}
	return nil
}

func walkEnum(prefix string, en *descriptorpb.EnumDescriptorProto, enter, exit func(protoreflect.FullName, proto.Message) error) error {
	fqn := protoreflect.FullName(prefix + en.GetName())
	if err := enter(fqn, en); err != nil {
		return err
	}
	for _, v := range en.GetValue() {
		vfqn := protoreflect.FullName(prefix + v.GetName())
		if err := enter(vfqn, v); err != nil {
			return err
		}
		if exit != nil {
			if err := exit(vfqn, v); err != nil {
				return err
			}
		}
	}
	if exit != nil {
		if err := exit(fqn, en); err != nil {
			return err
		}
	}
	return nil
}

func descriptorTypeWithArticle(d protoreflect.Descriptor) string {
	switch d := d.(type) {
	case protoreflect.MessageDescriptor:
		return "a message"
	case protoreflect.FieldDescriptor:
		if d.IsExtension() {
			return "an extension"
		}
		return "a field"
	case protoreflect.OneofDescriptor:
		return "a oneof"
	case protoreflect.EnumDescriptor:
		return "an enum"
	case protoreflect.EnumValueDescriptor:
		return "an enum value"
	case protoreflect.ServiceDescriptor:
		return "a service"
	case protoreflect.MethodDescriptor:
		return "a method"
	case protoreflect.FileDescriptor:
		return "a file"
	default:
		return fmt.Sprintf("a %T", d)
	}
}

// resolveReferences rewrites every type reference in this file's descriptor
// proto to be fully qualified, disambiguating message-vs-enum references
// (the parser cannot tell the two apart), and checks that extension tag
// numbers fall within the extended message's declared ranges. Once this
// succeeds, it builds this file's real protoreflect.FileDescriptor.
func (r *result) resolveReferences(handler *reporter.Handler, s *Symbols) error {
	r.buildLocalSymbols()

	fd := r.FileDescriptorProto()
	scopes := []scope{fileScope(r)}
	if fd.GetOptions() != nil {
		if err := r.resolveOptions(handler, "file", protoreflect.FullName(fd.GetName()), fd.GetOptions().GetUninterpretedOption(), scopes); err != nil {
			return err
		}
	}

	err := walkDescriptorProtos(fd,
		func(fqn protoreflect.FullName, d proto.Message) error {
			switch d := d.(type) {
			case *descriptorpb.DescriptorProto:
				// protoc resolves extension names inside a message using the
				// *enclosing* scope, not the message's own scope. So the
				// message's scope isn't pushed until after its own options
				// are resolved.
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "message", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
				scopes = append(scopes, messageScope(r, fqn))
				for _, er := range d.GetExtensionRange() {
					if er.GetOptions() != nil {
						erName := protoreflect.FullName(fmt.Sprintf("%s:%d-%d", fqn, er.GetStart(), er.GetEnd()-1))
						if err := r.resolveOptions(handler, "extension range", erName, er.GetOptions().GetUninterpretedOption(), scopes); err != nil {
							return err
						}
					}
				}
			case *descriptorpb.FieldDescriptorProto:
				// resolveFieldTypes also resolves this field's own options.
				if err := r.resolveFieldTypes(handler, s, fqn, d, scopes); err != nil {
					return err
				}
				if r.Syntax() == protoreflect.Proto3 && !allowedProto3Extendee(d.GetExtendee()) {
					file := r.FileNode()
					extendNode := r.FieldExtendeeNode(d)
					if err := handler.HandleErrorf(file.NodeInfo(extendNode.Extendee), "extend blocks in proto3 can only be used to define custom options"); err != nil {
						return err
					}
				}
			case *descriptorpb.OneofDescriptorProto:
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "one-of", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
			case *descriptorpb.EnumDescriptorProto:
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "enum", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
			case *descriptorpb.EnumValueDescriptorProto:
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "enum value", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
			case *descriptorpb.ServiceDescriptorProto:
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "service", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
				scopes = append(scopes, messageScope(r, fqn))
			case *descriptorpb.MethodDescriptorProto:
				if d.GetOptions() != nil {
					if err := r.resolveOptions(handler, "method", fqn, d.GetOptions().GetUninterpretedOption(), scopes); err != nil {
						return err
					}
				}
				if err := r.resolveMethodTypes(handler, fqn, d, scopes); err != nil {
					return err
				}
			}
			return nil
		},
		func(fqn protoreflect.FullName, d proto.Message) error {
			switch d.(type) {
			case *descriptorpb.DescriptorProto, *descriptorpb.ServiceDescriptorProto:
				scopes = scopes[:len(scopes)-1]
			}
			return nil
		})
	if err != nil {
		return err
	}

	if buildErr := r.buildDescriptor(); buildErr != nil && handler.Error() == nil {
		return buildErr
	}
	return nil
}

var allowedProto3Extendees = map[string]struct{}{
	".google.protobuf.FileOptions":           {},
	".google.protobuf.MessageOptions":        {},
	".google.protobuf.FieldOptions":          {},
	".google.protobuf.OneofOptions":          {},
	".google.protobuf.ExtensionRangeOptions": {},
	".google.protobuf.EnumOptions":           {},
	".google.protobuf.EnumValueOptions":      {},
	".google.protobuf.ServiceOptions":        {},
	".google.protobuf.MethodOptions":         {},
}

func allowedProto3Extendee(n string) bool {
	if n == "" {
		return true
	}
	_, ok := allowedProto3Extendees[n]
	return ok
}

func (r *result) resolveFieldTypes(handler *reporter.Handler, s *Symbols, fqn protoreflect.FullName, fld *descriptorpb.FieldDescriptorProto, scopes []scope) error {
	file := r.FileNode()
	node := r.FieldNode(fld)
	elemType := "field"
	scopeDesc := fmt.Sprintf("field %s", fqn)
	if fld.GetExtendee() != "" {
		elemType = "extension"
		scopeDesc = fmt.Sprintf("extension %s", fqn)
		extendNode := r.FieldExtendeeNode(fld)
		dsc := r.resolve(fld.GetExtendee(), false, scopes)
		if dsc == nil {
			return handler.HandleErrorf(file.NodeInfo(extendNode.Extendee), "unknown extendee type %s", fld.GetExtendee())
		}
		if isSentinelDescriptor(dsc) {
			return handler.HandleErrorf(file.NodeInfo(extendNode.Extendee), "unknown extendee type %s; resolved to %s which is not defined; consider using a leading dot", fld.GetExtendee(), dsc.FullName())
		}
		extd, ok := dsc.(protoreflect.MessageDescriptor)
		if !ok {
			return handler.HandleErrorf(file.NodeInfo(extendNode.Extendee), "extendee is invalid: %s is %s, not a message", dsc.FullName(), descriptorTypeWithArticle(dsc))
		}
		fld.Extendee = proto.String("." + string(dsc.FullName()))
		found := false
		tag := protoreflect.FieldNumber(fld.GetNumber())
		for i := 0; i < extd.ExtensionRanges().Len(); i++ {
			rng := extd.ExtensionRanges().Get(i)
			if tag >= rng[0] && tag < rng[1] {
				found = true
				break
			}
		}
		if !found {
			if err := handler.HandleErrorf(file.NodeInfo(node.FieldTag()), "%s: tag %d is not in valid range for extended type %s", scopeDesc, tag, dsc.FullName()); err != nil {
				return err
			}
		} else if err := s.AddExtension(extd.ParentFile().Package(), dsc.FullName(), tag, file.NodeInfo(node.FieldTag()), handler); err != nil {
			return err
		}
		r.recordReference(dsc, file.NodeInfo(extendNode.Extendee))
	}

	if fld.GetOptions() != nil {
		if err := r.resolveOptions(handler, elemType, fqn, fld.GetOptions().GetUninterpretedOption(), scopes); err != nil {
			return err
		}
	}

	if fld.GetTypeName() == "" {
		return nil
	}

	dsc := r.resolve(fld.GetTypeName(), true, scopes)
	if dsc == nil {
		return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "%s: unknown type %s", scopeDesc, fld.GetTypeName())
	}
	if isSentinelDescriptor(dsc) {
		return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "%s: unknown type %s; resolved to %s which is not defined; consider using a leading dot", scopeDesc, fld.GetTypeName(), dsc.FullName())
	}
	switch dsc := dsc.(type) {
	case protoreflect.MessageDescriptor:
		if dsc.IsMapEntry() {
			isValid := false
			switch node.(type) {
			case *ast.MapFieldNode:
				isValid = true
			case ast.NoSourceNode:
				isValid = dsc.FullName() == fqn && fld.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED
			}
			if !isValid {
				return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "%s: %s is a synthetic map entry and may not be referenced explicitly", scopeDesc, dsc.FullName())
			}
		}
		fld.TypeName = proto.String("." + string(dsc.FullName()))
		if fld.Type == nil {
			fld.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		}
	case protoreflect.EnumDescriptor:
		proto3 := r.Syntax() == protoreflect.Proto3
		enumIsProto3 := dsc.ParentFile().Syntax() == protoreflect.Proto3
		if fld.GetExtendee() == "" && proto3 && !enumIsProto3 {
			return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "%s: cannot use proto2 enum %s in a proto3 message", scopeDesc, fld.GetTypeName())
		}
		fld.TypeName = proto.String("." + string(dsc.FullName()))
		fld.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
	default:
		return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "%s: invalid type: %s is %s, not a message or enum", scopeDesc, dsc.FullName(), descriptorTypeWithArticle(dsc))
	}
	r.recordReference(dsc, file.NodeInfo(node.FieldType()))
	return nil
}

func (r *result) resolveMethodTypes(handler *reporter.Handler, fqn protoreflect.FullName, mtd *descriptorpb.MethodDescriptorProto, scopes []scope) error {
	scopeDesc := fmt.Sprintf("method %s", fqn)
	file := r.FileNode()
	node := r.MethodNode(mtd)

	dsc := r.resolve(mtd.GetInputType(), false, scopes)
	switch {
	case dsc == nil:
		if err := handler.HandleErrorf(file.NodeInfo(node.GetInputType()), "%s: unknown request type %s", scopeDesc, mtd.GetInputType()); err != nil {
			return err
		}
	case isSentinelDescriptor(dsc):
		if err := handler.HandleErrorf(file.NodeInfo(node.GetInputType()), "%s: unknown request type %s; resolved to %s which is not defined; consider using a leading dot", scopeDesc, mtd.GetInputType(), dsc.FullName()); err != nil {
			return err
		}
	default:
		if _, ok := dsc.(protoreflect.MessageDescriptor); !ok {
			if err := handler.HandleErrorf(file.NodeInfo(node.GetInputType()), "%s: invalid request type: %s is %s, not a message", scopeDesc, dsc.FullName(), descriptorTypeWithArticle(dsc)); err != nil {
				return err
			}
		} else {
			mtd.InputType = proto.String("." + string(dsc.FullName()))
			r.recordReference(dsc, file.NodeInfo(node.GetInputType()))
		}
	}

	dsc = r.resolve(mtd.GetOutputType(), false, scopes)
	switch {
	case dsc == nil:
		if err := handler.HandleErrorf(file.NodeInfo(node.GetOutputType()), "%s: unknown response type %s", scopeDesc, mtd.GetOutputType()); err != nil {
			return err
		}
	case isSentinelDescriptor(dsc):
		if err := handler.HandleErrorf(file.NodeInfo(node.GetOutputType()), "%s: unknown response type %s; resolved to %s which is not defined; consider using a leading dot", scopeDesc, mtd.GetOutputType(), dsc.FullName()); err != nil {
			return err
		}
	default:
		if _, ok := dsc.(protoreflect.MessageDescriptor); !ok {
			if err := handler.HandleErrorf(file.NodeInfo(node.GetOutputType()), "%s: invalid response type: %s is %s, not a message", scopeDesc, dsc.FullName(), descriptorTypeWithArticle(dsc)); err != nil {
				return err
			}
		} else {
			mtd.OutputType = proto.String("." + string(dsc.FullName()))
			r.recordReference(dsc, file.NodeInfo(node.GetOutputType()))
		}
	}
	return nil
}

func (r *result) resolveOptions(handler *reporter.Handler, elemType string, elemName protoreflect.FullName, opts []*descriptorpb.UninterpretedOption, scopes []scope) error {
	mc := &protointernal.MessageContext{
		File:        r,
		ElementName: string(elemName),
		ElementType: elemType,
	}
	file := r.FileNode()
opts:
	for _, opt := range opts {
		for _, nm := range opt.GetName() {
			if nm.GetIsExtension() {
				node := r.OptionNamePartNode(nm)
				fqn, err := r.resolveExtensionName(nm.GetNamePart(), scopes)
				if err != nil {
					if err := handler.HandleErrorf(file.NodeInfo(node), "%v%v", mc, err); err != nil {
						return err
					}
					continue opts
				}
				nm.NamePart = proto.String(fqn)
			}
		}
		mc.Option = opt
		optVal := r.OptionNode(opt).GetVal()
		if err := r.resolveOptionValue(handler, mc, optVal, scopes); err != nil {
			return err
		}
		mc.Option = nil
	}
	return nil
}

func (r *result) resolveOptionValue(handler *reporter.Handler, mc *protointernal.MessageContext, val *ast.ValueNode, scopes []scope) error {
	if val == nil {
		return nil
	}
	optVal := val.Value()
	switch optVal := optVal.(type) {
	case []*ast.ValueNode:
		origPath := mc.OptAggPath
		defer func() { mc.OptAggPath = origPath }()
		for i, v := range optVal {
			mc.OptAggPath = fmt.Sprintf("%s[%d]", origPath, i)
			if err := r.resolveOptionValue(handler, mc, v, scopes); err != nil {
				return err
			}
		}
	case []*ast.MessageFieldNode:
		origPath := mc.OptAggPath
		defer func() { mc.OptAggPath = origPath }()
		for _, fld := range optVal {
			if fld.Name.IsExtension() {
				fqn, err := r.resolveExtensionName(string(fld.Name.Name.AsIdentifier()), scopes)
				if err != nil {
					if err := handler.HandleErrorf(r.FileNode().NodeInfo(fld.Name.Name), "%v%v", mc, err); err != nil {
						return err
					}
				} else {
					r.optionQualifiedNames[fld.Name.Name] = fqn
				}
			}

			mc.OptAggPath = origPath
			if origPath != "" {
				mc.OptAggPath += "."
			}
			if fld.Name.IsExtension() {
				mc.OptAggPath = fmt.Sprintf("%s[%s]", mc.OptAggPath, string(fld.Name.Name.AsIdentifier()))
			} else {
				mc.OptAggPath = fmt.Sprintf("%s%s", mc.OptAggPath, string(fld.Name.Name.AsIdentifier()))
			}

			if err := r.resolveOptionValue(handler, mc, fld.Val, scopes); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *result) resolveExtensionName(name string, scopes []scope) (string, error) {
	dsc := r.resolve(name, false, scopes)
	if dsc == nil {
		return "", fmt.Errorf("unknown extension %s", name)
	}
	if isSentinelDescriptor(dsc) {
		return "", fmt.Errorf("unknown extension %s; resolved to %s which is not defined; consider using a leading dot", name, dsc.FullName())
	}
	ext, ok := dsc.(protoreflect.FieldDescriptor)
	if !ok {
		return "", fmt.Errorf("invalid extension: %s is %s, not an extension", name, descriptorTypeWithArticle(dsc))
	}
	if !ext.IsExtension() {
		return "", fmt.Errorf("invalid extension: %s is a field but not an extension", name)
	}
	return "." + string(dsc.FullName()), nil
}

func (r *result) resolve(name string, onlyTypes bool, scopes []scope) protoreflect.Descriptor {
	if strings.HasPrefix(name, ".") {
		return r.resolveElement(protoreflect.FullName(name[1:]))
	}
	pos := strings.IndexByte(name, '.')
	firstName := name
	if pos > 0 {
		firstName = name[:pos]
	}
	var bestGuess protoreflect.Descriptor
	for i := len(scopes) - 1; i >= 0; i-- {
		d := scopes[i](firstName, name)
		if d != nil {
			if !onlyTypes || isType(d) || firstName != name {
				return d
			}
			if bestGuess == nil {
				bestGuess = d
			}
		}
	}
	return bestGuess
}

func isType(d protoreflect.Descriptor) bool {
	switch d.(type) {
	case protoreflect.MessageDescriptor, protoreflect.EnumDescriptor:
		return true
	}
	return false
}

func (r *result) resolveElement(name protoreflect.FullName) protoreflect.Descriptor {
	if len(name) > 0 && name[0] == '.' {
		name = name[1:]
	}
	importedFd, res := resolveElement(r, name, false, nil)
	if importedFd != nil {
		r.markUsed(importedFd.Path())
	}
	return res
}

func (r *result) markUsed(importPath string) {
	if r.usedImports == nil {
		r.usedImports = map[string]struct{}{}
	}
	r.usedImports[importPath] = struct{}{}
}

// CheckForUnusedImports reports a warning for every direct, non-public
// import that was never needed to resolve a type reference or option name.
func (r *result) CheckForUnusedImports(handler *reporter.Handler) {
	fd := r.FileDescriptorProto()
	file := r.FileNode()
	for i, dep := range fd.GetDependency() {
		if _, ok := r.usedImports[dep]; ok {
			continue
		}
		isPublic := false
		for _, j := range fd.GetPublicDependency() {
			if i == int(j) {
				isPublic = true
				break
			}
		}
		if isPublic {
			continue
		}
		pos := ast.SourcePosInfo(ast.NewSourceSpan(ast.UnknownPos(fd.GetName()), ast.UnknownPos(fd.GetName())))
		for _, decl := range file.Decls {
			if imp, ok := decl.(*ast.ImportNode); ok && imp.Name.AsString() == dep {
				pos = file.NodeInfo(imp)
				break
			}
		}
		handler.HandleWarning(reporter.Errorf(pos, "%v", errUnusedImport(dep)))
	}
}

func resolveElement(f File, fqn protoreflect.FullName, publicImportsOnly bool, checked []string) (imported File, d protoreflect.Descriptor) {
	path := f.Path()
	for _, str := range checked {
		if str == path {
			return nil, nil
		}
	}
	checked = append(checked, path)

	if r := resolveElementInFile(fqn, f); r != nil {
		return nil, r
	}

	for i := 0; i < f.Imports().Len(); i++ {
		dep := f.Imports().Get(i)
		if dep.IsPublic || !publicImportsOnly {
			depFile := f.FindImportByPath(dep.Path())
			if depFile == nil {
				continue
			}
			_, d := resolveElement(depFile, fqn, true, checked)
			if d != nil {
				return depFile, d
			}
		}
	}
	return nil, nil
}

// scope represents a lexical scope in a proto file in which messages and
// enums can be declared.
type scope func(firstName, fullName string) protoreflect.Descriptor

func fileScope(r *result) scope {
	prefixes := createPrefixList(r.FileDescriptorProto().GetPackage())
	querySymbol := func(n string) protoreflect.Descriptor {
		return r.resolveElement(protoreflect.FullName(n))
	}
	return func(firstName, fullName string) protoreflect.Descriptor {
		for _, prefix := range prefixes {
			var n1, n string
			if prefix == "" {
				n1, n = fullName, fullName
			} else {
				n = prefix + "." + fullName
				n1 = prefix + "." + firstName
			}
			if d := resolveElementRelative(n1, n, querySymbol); d != nil {
				return d
			}
		}
		return nil
	}
}

func messageScope(r *result, messageName protoreflect.FullName) scope {
	querySymbol := func(n string) protoreflect.Descriptor {
		return resolveElementInFile(protoreflect.FullName(n), r)
	}
	return func(firstName, fullName string) protoreflect.Descriptor {
		n1 := string(messageName) + "." + firstName
		n := string(messageName) + "." + fullName
		return resolveElementRelative(n1, n, querySymbol)
	}
}

// createPrefixList returns the given package name's hierarchy of prefixes,
// from most to least specific, ending with the empty string. For "a.b.c",
// that's ["a.b.c", "a.b", "a", ""].
func createPrefixList(pkg string) []string {
	if pkg == "" {
		return []string{""}
	}
	prefixes := make([]string, 0, strings.Count(pkg, ".")+2)
	for {
		prefixes = append(prefixes, pkg)
		idx := strings.LastIndexByte(pkg, '.')
		if idx < 0 {
			break
		}
		pkg = pkg[:idx]
	}
	return append(prefixes, "")
}

func resolveElementRelative(firstName, fullName string, query func(name string) protoreflect.Descriptor) protoreflect.Descriptor {
	d := query(firstName)
	if d == nil {
		return nil
	}
	if firstName == fullName {
		return d
	}
	if !isAggregateDescriptor(d) {
		return nil
	}
	d = query(fullName)
	if d == nil {
		return newSentinelDescriptor(fullName)
	}
	return d
}

func resolveElementInFile(name protoreflect.FullName, f File) protoreflect.Descriptor {
	if d := f.FindDescriptorByName(name); d != nil {
		return d
	}
	if matchesPkgNamespace(name, f.Package()) {
		return newSentinelDescriptor(string(name))
	}
	return nil
}

func matchesPkgNamespace(fqn, pkg protoreflect.FullName) bool {
	if pkg == "" {
		return false
	}
	if fqn == pkg {
		return true
	}
	if len(pkg) > len(fqn) && strings.HasPrefix(string(pkg), string(fqn)) {
		if pkg[len(fqn)] == '.' {
			return true
		}
	}
	return false
}

func isAggregateDescriptor(d protoreflect.Descriptor) bool {
	if isSentinelDescriptor(d) {
		return true
	}
	switch d.(type) {
	case protoreflect.MessageDescriptor, protoreflect.EnumDescriptor, protoreflect.ServiceDescriptor:
		return true
	default:
		return false
	}
}

func isSentinelDescriptor(d protoreflect.Descriptor) bool {
	_, ok := d.(*sentinelDescriptor)
	return ok
}

func newSentinelDescriptor(name string) protoreflect.Descriptor {
	return &sentinelDescriptor{name: name}
}

// sentinelDescriptor is a placeholder used instead of nil to distinguish
// "name not found" from "name matched a valid namespace prefix but not an
// actual element, so don't keep searching enclosing scopes".
type sentinelDescriptor struct {
	protoreflect.Descriptor
	name string
}

func (p *sentinelDescriptor) ParentFile() protoreflect.FileDescriptor { return nil }
func (p *sentinelDescriptor) Parent() protoreflect.Descriptor         { return nil }
func (p *sentinelDescriptor) Index() int                              { return 0 }
func (p *sentinelDescriptor) Syntax() protoreflect.Syntax              { return 0 }
func (p *sentinelDescriptor) Name() protoreflect.Name                  { return protoreflect.Name(p.name) }
func (p *sentinelDescriptor) FullName() protoreflect.FullName          { return protoreflect.FullName(p.name) }
func (p *sentinelDescriptor) IsPlaceholder() bool                      { return false }
func (p *sentinelDescriptor) Options() protoreflect.ProtoMessage       { return nil }

var _ protoreflect.Descriptor = (*sentinelDescriptor)(nil)
