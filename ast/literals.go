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

package ast

// IdentNode represents a simple, unqualified identifier. These are used to
// name elements declared in a protobuf file or to refer to elements. Example:
//
//	foo
type IdentNode struct {
	TerminalNode
	Val       string
	IsKeyword bool
}

// CompoundIdentNode represents a qualified identifier. A qualified identifier
// has at least one dot and possibly multiple identifier names (all separated
// by dots). Example:
//
//	.foo.bar
type CompoundIdentNode struct {
	// Components are the identifier names, in source order.
	Components []*IdentNode
	// Dots represent the '.' characters of the identifier: one between each
	// pair of adjacent components and, optionally, a leading dot that marks
	// a fully-qualified identifier in the root namespace (see LeadingDot).
	// The length of this slice must be exactly len(Components)-1 or, if a
	// leading dot is present, len(Components).
	Dots []*RuneNode
}

func (n *CompoundIdentNode) GetComponents() []*IdentNode {
	if n == nil {
		return nil
	}
	return n.Components
}

func (n *CompoundIdentNode) GetDots() []*RuneNode {
	if n == nil {
		return nil
	}
	return n.Dots
}

// StringLiteralNode represents a single string literal token. Example:
//
//	"proto2"
type StringLiteralNode struct {
	TerminalNode
	Val string
}

// NewStringLiteralNode creates a new *StringLiteralNode with the given
// (already unescaped) string value.
func NewStringLiteralNode(val string, tok Token) *StringLiteralNode {
	return &StringLiteralNode{
		TerminalNode: TerminalNode(tok),
		Val:          val,
	}
}

// CompoundStringLiteralNode represents a "compound" string literal, which
// is the concatenation of adjacent string literal tokens. Example:
//
//	"this is one "
//	"single string value"
type CompoundStringLiteralNode struct {
	Elements []*StringLiteralNode
}

// NewCompoundStringLiteralNode creates a new *StringValueNode that wraps a
// *CompoundStringLiteralNode formed by appending next onto the literal(s)
// already wrapped by prev. If prev wraps a single *StringLiteralNode (as
// opposed to an already-compound one), it becomes the first element.
func NewCompoundStringLiteralNode(prev *StringValueNode, next *StringLiteralNode) *StringValueNode {
	var elements []*StringLiteralNode
	switch u := prev.Unwrap().(type) {
	case *StringLiteralNode:
		elements = []*StringLiteralNode{u}
	case *CompoundStringLiteralNode:
		elements = u.Elements
	}
	elements = append(elements, next)
	return (&CompoundStringLiteralNode{Elements: elements}).AsStringValueNode()
}

// UintLiteralNode represents a simple numeric literal with no sign and no
// decimal point. Example:
//
//	123456
type UintLiteralNode struct {
	TerminalNode
	Val uint64
}

// NewUintLiteralNode creates a new *UintLiteralNode. The raw source text is
// not retained; it is accepted only so that the lexer can pass through the
// exact digits it scanned (e.g. to distinguish octal/hex forms) without this
// constructor needing to re-derive val itself.
func NewUintLiteralNode(val uint64, tok Token, raw string) *UintLiteralNode {
	return &UintLiteralNode{
		TerminalNode: TerminalNode(tok),
		Val:          val,
	}
}

// NegativeIntLiteralNode represents a negative integer literal, which is
// just a minus sign immediately followed by an (unsigned) integer literal.
// Example:
//
//	-42
type NegativeIntLiteralNode struct {
	Minus *RuneNode
	Uint  *UintLiteralNode
}

// FloatLiteralNode represents a floating point numeric literal. Example:
//
//	1.2e10
type FloatLiteralNode struct {
	TerminalNode
	Val float64
}

// NewFloatLiteralNode creates a new *FloatLiteralNode. Like
// NewUintLiteralNode, the raw source text is accepted but not retained.
func NewFloatLiteralNode(val float64, tok Token, raw string) *FloatLiteralNode {
	return &FloatLiteralNode{
		TerminalNode: TerminalNode(tok),
		Val:          val,
	}
}

// SpecialFloatLiteralNode represents a special floating point numeric literal
// for "inf" and "nan" values. Example:
//
//	infinity
type SpecialFloatLiteralNode struct {
	Keyword *IdentNode
	Val     float64
}

func (n *SpecialFloatLiteralNode) Start() Token { return n.Keyword.Start() }
func (n *SpecialFloatLiteralNode) End() Token   { return n.Keyword.End() }

// SignedFloatLiteralNode represents a signed floating point number. Example:
//
//	-9.8
type SignedFloatLiteralNode struct {
	Sign  *RuneNode
	Float *FloatLiteralNode
}

// ArrayLiteralNode represents an array literal, which is only allowed inside
// of a MessageLiteralNode, to set a repeated field. Example:
//
//	["foo", "bar", "baz"]
type ArrayLiteralNode struct {
	OpenBracket *RuneNode
	Elements    []*ValueNode
	// Commas represent the separating ',' characters between values. The
	// length of this slice must be exactly len(Elements)-1, each item in
	// Elements having a corresponding item in this slice *except the last*.
	Commas       []*RuneNode
	CloseBracket *RuneNode
	Semicolon    *RuneNode
}

// MessageLiteralNode represents a message literal, which is compatible with
// the protobuf text format and can be used for options whose type is a
// message. Example:
//
//	{ foo: 1, bar: "baz" }
type MessageLiteralNode struct {
	Open     *RuneNode
	Elements []*MessageFieldNode
	// Seps represent the separating characters (if any) between fields. For
	// each item in Elements, there is a corresponding item in this slice
	// (which could be nil, for no separator present).
	Seps      []*RuneNode
	Close     *RuneNode
	Semicolon *RuneNode
}

// MessageFieldNode represents a single field (name and value) inside of a
// message literal. Example:
//
//	foo: "bar"
type MessageFieldNode struct {
	Name      *FieldReferenceNode
	Sep       *RuneNode // optional for messages and groups, may be colon or absent
	Val       *ValueNode
	Semicolon *RuneNode
}

func (n *MessageFieldNode) GetVal() *ValueNode {
	if n == nil {
		return nil
	}
	return n.Val
}
