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

package ast_test

// astFixtures holds inline .proto sources shared by the lexer/parser-level
// AST tests in this package (token sequencing, item sequencing, and
// lex-print-relex round tripping). Each is syntactically valid — these
// tests never reach the checker, so a fixture is free to contain the kind
// of semantic error the checker would reject (e.g. a reserved field number)
// as long as it parses.
var astFixtures = map[string]string{
	// map + group + oneof + extension interaction.
	"map_group_oneof_extension": `
extend Bar { optional group Baz = 1 {} }
message Bar {
  extensions 1;
  map<int32, string> x = 5;
  oneof foo { group Quz = 3 {} }
  message Nest {}
}
`,
	// proto3 default value: rejected by the checker, but a legal parse.
	"proto3_default_value": `
syntax='proto3'; message M{ optional int32 foo=1[default="foo"]; }
`,
	// proto3 synthetic oneof name collision: rejected by the checker, but a
	// legal parse.
	"proto3_synthetic_oneof_conflict": `
syntax='proto3'; message Foo{ optional fixed64 val=1; message _val{} }
`,
	// method referencing a non-message type: rejected by the checker, but a
	// legal parse.
	"invalid_method_type": `
enum E{Z=0;} message M{} service S{ rpc r(.E) returns (.M); }
`,
	// field numbers at the reserved-range boundary: legal parse regardless of
	// whether the checker accepts each number.
	"reserved_range_boundaries": `
message F{ optional int32 i = 18999; optional int32 j = 20000; }
`,
	// exercises leading, trailing, and detached comment attachment.
	"comments": `
// leading comment for message
message Commented {
  // leading for field
  optional string name = 1; // trailing for field

  // leading, detached

  // leading, attached
  optional int32 id = 2;
}
`,
}
