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

// ValueNode wraps any one of several node types that represent a value
// that can be assigned to an option or to a field in a message literal.
// The concrete types that can be wrapped are: *IdentNode, *CompoundIdentNode,
// *StringLiteralNode, *CompoundStringLiteralNode, *UintLiteralNode,
// *NegativeIntLiteralNode, *FloatLiteralNode, *SpecialFloatLiteralNode,
// *SignedFloatLiteralNode, *ArrayLiteralNode, and *MessageLiteralNode.
type ValueNode struct {
	Val isValueNode_Val
}

type isValueNode_Val interface {
	isValueNode_Val()
}

type ValueNode_Ident struct {
	Ident *IdentNode
}

type ValueNode_CompoundIdent struct {
	CompoundIdent *CompoundIdentNode
}

type ValueNode_StringLiteral struct {
	StringLiteral *StringLiteralNode
}

type ValueNode_CompoundStringLiteral struct {
	CompoundStringLiteral *CompoundStringLiteralNode
}

type ValueNode_UintLiteral struct {
	UintLiteral *UintLiteralNode
}

type ValueNode_NegativeIntLiteral struct {
	NegativeIntLiteral *NegativeIntLiteralNode
}

type ValueNode_FloatLiteral struct {
	FloatLiteral *FloatLiteralNode
}

type ValueNode_SpecialFloatLiteral struct {
	SpecialFloatLiteral *SpecialFloatLiteralNode
}

type ValueNode_SignedFloatLiteral struct {
	SignedFloatLiteral *SignedFloatLiteralNode
}

type ValueNode_ArrayLiteral struct {
	ArrayLiteral *ArrayLiteralNode
}

type ValueNode_MessageLiteral struct {
	MessageLiteral *MessageLiteralNode
}

func (*ValueNode_Ident) isValueNode_Val()                 {}
func (*ValueNode_CompoundIdent) isValueNode_Val()         {}
func (*ValueNode_StringLiteral) isValueNode_Val()         {}
func (*ValueNode_CompoundStringLiteral) isValueNode_Val() {}
func (*ValueNode_UintLiteral) isValueNode_Val()           {}
func (*ValueNode_NegativeIntLiteral) isValueNode_Val()    {}
func (*ValueNode_FloatLiteral) isValueNode_Val()          {}
func (*ValueNode_SpecialFloatLiteral) isValueNode_Val()   {}
func (*ValueNode_SignedFloatLiteral) isValueNode_Val()    {}
func (*ValueNode_ArrayLiteral) isValueNode_Val()          {}
func (*ValueNode_MessageLiteral) isValueNode_Val()        {}

func (n *ValueNode) GetVal() isValueNode_Val {
	if n == nil {
		return nil
	}
	return n.Val
}

type AnyValueNode interface {
	Node
	AsValueNode() *ValueNode
	Value() any
}

func (n *ValueNode) Unwrap() AnyValueNode {
	switch n := n.GetVal().(type) {
	case *ValueNode_Ident:
		return n.Ident
	case *ValueNode_CompoundIdent:
		return n.CompoundIdent
	case *ValueNode_StringLiteral:
		return n.StringLiteral
	case *ValueNode_CompoundStringLiteral:
		return n.CompoundStringLiteral
	case *ValueNode_UintLiteral:
		return n.UintLiteral
	case *ValueNode_NegativeIntLiteral:
		return n.NegativeIntLiteral
	case *ValueNode_FloatLiteral:
		return n.FloatLiteral
	case *ValueNode_SpecialFloatLiteral:
		return n.SpecialFloatLiteral
	case *ValueNode_SignedFloatLiteral:
		return n.SignedFloatLiteral
	case *ValueNode_ArrayLiteral:
		return n.ArrayLiteral
	case *ValueNode_MessageLiteral:
		return n.MessageLiteral
	}
	return nil
}

func (n *ValueNode) HasValue() bool {
	return n != nil && n.Val != nil
}

func (n *ValueNode) GetArrayLiteral() *ArrayLiteralNode {
	if x, ok := n.GetVal().(*ValueNode_ArrayLiteral); ok {
		return x.ArrayLiteral
	}
	return nil
}

func (n *ValueNode) GetMessageLiteral() *MessageLiteralNode {
	if x, ok := n.GetVal().(*ValueNode_MessageLiteral); ok {
		return x.MessageLiteral
	}
	return nil
}

// StringValueNode wraps either *StringLiteralNode or
// *CompoundStringLiteralNode.
type StringValueNode struct {
	Val isStringValueNode_Val
}

type isStringValueNode_Val interface {
	isStringValueNode_Val()
}

type StringValueNode_StringLiteral struct {
	StringLiteral *StringLiteralNode
}

type StringValueNode_CompoundStringLiteral struct {
	CompoundStringLiteral *CompoundStringLiteralNode
}

func (*StringValueNode_StringLiteral) isStringValueNode_Val()         {}
func (*StringValueNode_CompoundStringLiteral) isStringValueNode_Val() {}

func (n *StringValueNode) GetVal() isStringValueNode_Val {
	if n == nil {
		return nil
	}
	return n.Val
}

type AnyStringValueNode interface {
	Node
	AsStringValueNode() *StringValueNode
	AsString() string
}

func (n *StringValueNode) Unwrap() AnyStringValueNode {
	switch n := n.GetVal().(type) {
	case *StringValueNode_StringLiteral:
		return n.StringLiteral
	case *StringValueNode_CompoundStringLiteral:
		return n.CompoundStringLiteral
	}
	return nil
}

func (s *StringValueNode) AsValueNode() *ValueNode {
	switch u := s.Unwrap().(type) {
	case *StringLiteralNode:
		return u.AsValueNode()
	case *CompoundStringLiteralNode:
		return u.AsValueNode()
	}
	return nil
}

func (n *StringLiteralNode) AsStringValueNode() *StringValueNode {
	return &StringValueNode{
		Val: &StringValueNode_StringLiteral{
			StringLiteral: n,
		},
	}
}

func (n *StringLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_StringLiteral{
			StringLiteral: n,
		},
	}
}

func (n *CompoundStringLiteralNode) AsStringValueNode() *StringValueNode {
	return &StringValueNode{
		Val: &StringValueNode_CompoundStringLiteral{
			CompoundStringLiteral: n,
		},
	}
}

func (n *CompoundStringLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_CompoundStringLiteral{
			CompoundStringLiteral: n,
		},
	}
}

// IntValueNode wraps either *UintLiteralNode or *NegativeIntLiteralNode.
type IntValueNode struct {
	Val isIntValueNode_Val
}

type isIntValueNode_Val interface {
	isIntValueNode_Val()
}

type IntValueNode_UintLiteral struct {
	UintLiteral *UintLiteralNode
}

type IntValueNode_NegativeIntLiteral struct {
	NegativeIntLiteral *NegativeIntLiteralNode
}

func (*IntValueNode_UintLiteral) isIntValueNode_Val()        {}
func (*IntValueNode_NegativeIntLiteral) isIntValueNode_Val() {}

func (n *IntValueNode) GetVal() isIntValueNode_Val {
	if n == nil {
		return nil
	}
	return n.Val
}

type AnyIntValueNode interface {
	Node
	AsIntValueNode() *IntValueNode
	AsInt64() (int64, bool)
	AsUint64() (uint64, bool)
	Value() any
}

func (n *IntValueNode) Unwrap() AnyIntValueNode {
	switch n := n.GetVal().(type) {
	case *IntValueNode_UintLiteral:
		return n.UintLiteral
	case *IntValueNode_NegativeIntLiteral:
		return n.NegativeIntLiteral
	}
	return nil
}

func (n *UintLiteralNode) AsIntValueNode() *IntValueNode {
	return &IntValueNode{
		Val: &IntValueNode_UintLiteral{
			UintLiteral: n,
		},
	}
}

func (n *NegativeIntLiteralNode) AsIntValueNode() *IntValueNode {
	return &IntValueNode{
		Val: &IntValueNode_NegativeIntLiteral{
			NegativeIntLiteral: n,
		},
	}
}

// FloatValueNode wraps one of *FloatLiteralNode, *SpecialFloatLiteralNode,
// or *UintLiteralNode (an integer literal is a valid float value too).
type FloatValueNode struct {
	Val isFloatValueNode_Val
}

type isFloatValueNode_Val interface {
	isFloatValueNode_Val()
}

type FloatValueNode_FloatLiteral struct {
	FloatLiteral *FloatLiteralNode
}

type FloatValueNode_SpecialFloatLiteral struct {
	SpecialFloatLiteral *SpecialFloatLiteralNode
}

type FloatValueNode_UintLiteral struct {
	UintLiteral *UintLiteralNode
}

func (*FloatValueNode_FloatLiteral) isFloatValueNode_Val()        {}
func (*FloatValueNode_SpecialFloatLiteral) isFloatValueNode_Val() {}
func (*FloatValueNode_UintLiteral) isFloatValueNode_Val()         {}

func (n *FloatValueNode) GetVal() isFloatValueNode_Val {
	if n == nil {
		return nil
	}
	return n.Val
}

type AnyFloatValueNode interface {
	Node
	AsFloatValueNode() *FloatValueNode
	AsFloat() float64
}

func (n *FloatValueNode) Unwrap() AnyFloatValueNode {
	switch n := n.GetVal().(type) {
	case *FloatValueNode_FloatLiteral:
		return n.FloatLiteral
	case *FloatValueNode_SpecialFloatLiteral:
		return n.SpecialFloatLiteral
	case *FloatValueNode_UintLiteral:
		return n.UintLiteral
	}
	return nil
}

func (n *ArrayLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_ArrayLiteral{
			ArrayLiteral: n,
		},
	}
}

func (n *MessageLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_MessageLiteral{
			MessageLiteral: n,
		},
	}
}

func (n *FloatLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_FloatLiteral{
			FloatLiteral: n,
		},
	}
}

func (n *SignedFloatLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_SignedFloatLiteral{
			SignedFloatLiteral: n,
		},
	}
}

func (n *UintLiteralNode) AsFloatValueNode() *FloatValueNode {
	return &FloatValueNode{
		Val: &FloatValueNode_UintLiteral{
			UintLiteral: n,
		},
	}
}

func (n *UintLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_UintLiteral{
			UintLiteral: n,
		},
	}
}

func (n *IdentNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_Ident{
			Ident: n,
		},
	}
}

func (n *CompoundIdentNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_CompoundIdent{
			CompoundIdent: n,
		},
	}
}

func (n *NegativeIntLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_NegativeIntLiteral{
			NegativeIntLiteral: n,
		},
	}
}

func (n *SpecialFloatLiteralNode) AsFloatValueNode() *FloatValueNode {
	return &FloatValueNode{
		Val: &FloatValueNode_SpecialFloatLiteral{
			SpecialFloatLiteral: n,
		},
	}
}

func (n *SpecialFloatLiteralNode) AsValueNode() *ValueNode {
	return &ValueNode{
		Val: &ValueNode_SpecialFloatLiteral{
			SpecialFloatLiteral: n,
		},
	}
}

func (n *FloatLiteralNode) AsFloatValueNode() *FloatValueNode {
	return &FloatValueNode{
		Val: &FloatValueNode_FloatLiteral{
			FloatLiteral: n,
		},
	}
}

// IdentValueNode wraps either *IdentNode or *CompoundIdentNode.
type IdentValueNode struct {
	Val isIdentValueNode_Val
}

type isIdentValueNode_Val interface {
	isIdentValueNode_Val()
}

type IdentValueNode_Ident struct {
	Ident *IdentNode
}

type IdentValueNode_CompoundIdent struct {
	CompoundIdent *CompoundIdentNode
}

func (*IdentValueNode_Ident) isIdentValueNode_Val()         {}
func (*IdentValueNode_CompoundIdent) isIdentValueNode_Val() {}

func (n *IdentValueNode) GetVal() isIdentValueNode_Val {
	if n == nil {
		return nil
	}
	return n.Val
}

type AnyIdentValueNode interface {
	Node
	AsIdentValueNode() *IdentValueNode
	AsIdentifier() Identifier
}

func (n *IdentValueNode) Unwrap() AnyIdentValueNode {
	switch val := n.GetVal().(type) {
	case *IdentValueNode_Ident:
		return val.Ident
	case *IdentValueNode_CompoundIdent:
		return val.CompoundIdent
	}
	return nil
}

func (n *CompoundIdentNode) AsIdentValueNode() *IdentValueNode {
	return &IdentValueNode{
		Val: &IdentValueNode_CompoundIdent{
			CompoundIdent: n,
		},
	}
}
