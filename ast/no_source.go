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

// UnknownPos is a placeholder position when only the source file
// name is known.
func UnknownPos(filename string) SourcePos {
	return SourcePos{Filename: filename}
}

// unknownSpan is a placeholder span when only the source file
// name is known.
func UnknownSpan(filename string) SourceSpan {
	return unknownSpan{filename: filename}
}

type unknownSpan struct {
	filename string
}

func (n unknownSpan) Start() SourcePos {
	return UnknownPos(n.filename)
}

func (n unknownSpan) End() SourcePos {
	return UnknownPos(n.filename)
}

func (n unknownSpan) String() string {
	return n.filename
}

// NoSourceNode is a placeholder AST node that implements most of the
// declaration-node placeholder interfaces (FileDeclNode, MessageDeclNode,
// FieldDeclNode, etc.). It is used in place of a real node when an element
// has no corresponding source, such as elements derived from a descriptor
// proto that did not come from parsing source text.
type NoSourceNode struct {
	filename string
}

// NewNoSourceNode creates a new NoSourceNode that reports the given filename
// for any position queries.
func NewNoSourceNode(filename string) NoSourceNode {
	return NoSourceNode{filename: filename}
}

func (n NoSourceNode) Start() Token {
	return TokenError
}

func (n NoSourceNode) End() Token {
	return TokenError
}

func (n NoSourceNode) Name() string {
	return n.filename
}

func (n NoSourceNode) NodeInfo(Node) NodeInfo {
	return NodeInfo{}
}

func (n NoSourceNode) GetName() Node {
	return n
}

func (n NoSourceNode) GetNumber() Node {
	return n
}

func (n NoSourceNode) MessageName() Node {
	return n
}

func (n NoSourceNode) FieldLabel() Node {
	return n
}

func (n NoSourceNode) FieldName() Node {
	return n
}

func (n NoSourceNode) FieldType() Node {
	return n
}

func (n NoSourceNode) FieldTag() Node {
	return n
}

func (n NoSourceNode) GetGroupKeyword() Node {
	return n
}

func (n NoSourceNode) GetOptions() *CompactOptionsNode {
	return nil
}

func (n NoSourceNode) GetVal() *ValueNode {
	return nil
}

func (n NoSourceNode) RangeStart() Node {
	return n
}

func (n NoSourceNode) RangeEnd() Node {
	return n
}

func (n NoSourceNode) GetInputType() Node {
	return n
}

func (n NoSourceNode) GetOutputType() Node {
	return n
}
