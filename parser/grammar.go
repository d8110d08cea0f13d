package parser

import (
	"fmt"
	"unicode"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/reporter"
)

// parser consumes the token stream produced by a scanner and builds the AST
// via ordinary recursive-descent productions. It keeps one token of
// lookahead (cur) plus an optional second token (peek), needed only to
// distinguish "map<" from a field whose type happens to be named map.
type parser struct {
	scanner *scanner
	handler *reporter.Handler

	cur      token
	peek     token
	havePeek bool

	sawPackage bool
}

func (p *parser) scanNext() token {
	for {
		t := p.scanner.next()
		if t.kind == tokError {
			if p.handler.ReporterError() != nil {
				return token{kind: tokEOF, rune_: ast.NewRuneNode(0, ast.TokenError)}
			}
			// scanner already reported the error; keep scanning so later
			// errors in the same file can still be collected.
			continue
		}
		return t
	}
}

func (p *parser) advance() {
	if p.havePeek {
		p.cur = p.peek
		p.havePeek = false
		return
	}
	p.cur = p.scanNext()
}

func (p *parser) peekTok() token {
	if !p.havePeek {
		p.peek = p.scanNext()
		p.havePeek = true
	}
	return p.peek
}

func (p *parser) atRune(r rune) bool  { return p.cur.kind == tokRune && p.cur.rn == r }
func (p *parser) atKeyword(kw string) bool {
	return p.cur.kind == tokIdent && p.cur.ident.Val == kw
}
func (p *parser) atIdent() bool { return p.cur.kind == tokIdent }
func (p *parser) atString() bool { return p.cur.kind == tokString }
func (p *parser) atInt() bool   { return p.cur.kind == tokInt }
func (p *parser) atFloat() bool { return p.cur.kind == tokFloat }
func (p *parser) atEOF() bool   { return p.cur.kind == tokEOF }

func (p *parser) describeCur() string {
	switch p.cur.kind {
	case tokEOF:
		return "EOF"
	case tokIdent:
		return fmt.Sprintf("identifier %q", p.cur.ident.Val)
	case tokString:
		return "string literal"
	case tokInt:
		return "integer literal"
	case tokFloat:
		return "float literal"
	case tokRune:
		return fmt.Sprintf("%q", string(p.cur.rn))
	default:
		return "token"
	}
}

func (p *parser) errSpan() ast.SourcePosInfo {
	return p.scanner.info.NodeInfo(p.cur.node())
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.handler.HandleError(reporter.Errorf(p.errSpan(), format, args...))
}

// recover synchronizes at the next statement terminator so that multiple
// top-level errors can be reported from a single file instead of aborting
// on the first one.
func (p *parser) recover() {
	for {
		if p.atEOF() {
			return
		}
		if p.atRune(';') {
			p.advance()
			return
		}
		if p.atRune('}') {
			return
		}
		p.advance()
	}
}

func (p *parser) mustKeyword() *ast.KeywordNode {
	id := p.cur.ident
	p.advance()
	return ast.NewKeywordNode(id.Val, id.Token())
}

func (p *parser) expectRune(r rune) (*ast.RuneNode, bool) {
	if p.atRune(r) {
		rn := p.cur.rune_
		p.advance()
		return rn, true
	}
	p.errorf("syntax error: expecting %q but found %s", r, p.describeCur())
	return nil, false
}

func (p *parser) expectKeyword(kw string) (*ast.KeywordNode, bool) {
	if p.atKeyword(kw) {
		return p.mustKeyword(), true
	}
	p.errorf("syntax error: expecting %q but found %s", kw, p.describeCur())
	return nil, false
}

func (p *parser) expectIdent() (*ast.IdentNode, bool) {
	if p.atIdent() {
		id := p.cur.ident
		p.advance()
		return id, true
	}
	p.errorf("syntax error: expecting identifier but found %s", p.describeCur())
	return nil, false
}

func (p *parser) expectUint() (*ast.UintLiteralNode, bool) {
	if p.atInt() {
		u := p.cur.uint
		p.advance()
		return u, true
	}
	p.errorf("syntax error: expecting integer literal but found %s", p.describeCur())
	return nil, false
}

func (p *parser) parseStringValue() (*ast.StringValueNode, bool) {
	if !p.atString() {
		p.errorf("syntax error: expecting string literal but found %s", p.describeCur())
		return nil, false
	}
	first := p.cur.strLit
	p.advance()
	sv := first.AsStringValueNode()
	for p.atString() {
		next := p.cur.strLit
		p.advance()
		sv = ast.NewCompoundStringLiteralNode(sv, next)
	}
	return sv, true
}

// parseIdentValue parses a possibly-qualified, possibly fully-qualified
// (leading dot) identifier, as used for type names, package names, and
// extendee/option-name references.
func (p *parser) parseIdentValue() (*ast.IdentValueNode, bool) {
	var leadingDot *ast.RuneNode
	if p.atRune('.') {
		leadingDot = p.cur.rune_
		p.advance()
	}
	first, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	idents := []*ast.IdentNode{first}
	var dots []*ast.RuneNode
	for p.atRune('.') {
		dot := p.cur.rune_
		p.advance()
		id, ok := p.expectIdent()
		if !ok {
			break
		}
		dots = append(dots, dot)
		idents = append(idents, id)
	}
	if leadingDot == nil && len(idents) == 1 {
		return idents[0].AsIdentValue(), true
	}
	return ast.NewCompoundIdentNode(leadingDot, idents, dots).AsIdentValueNode(), true
}

func identValueToValue(idv *ast.IdentValueNode) *ast.ValueNode {
	switch u := idv.Unwrap().(type) {
	case *ast.IdentNode:
		return u.AsValueNode()
	case *ast.CompoundIdentNode:
		return u.AsValueNode()
	default:
		return nil
	}
}

// parseFile is the top-level production: an optional syntax or edition
// declaration followed by a sequence of file-level elements.
func (p *parser) parseFile() *ast.FileNode {
	info := p.scanner.info

	var syntax *ast.SyntaxNode
	var edition *ast.EditionNode
	switch {
	case p.atKeyword("syntax"):
		syntax = p.parseSyntax()
	case p.atKeyword("edition"):
		edition = p.parseEdition()
	}

	var decls []ast.FileElement
	for !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		if decl := p.parseFileElement(); decl != nil {
			decls = append(decls, decl)
		}
	}

	eof := p.cur.rune_.Token()
	if edition != nil {
		return ast.NewFileNodeWithEdition(info, edition, decls, eof)
	}
	return ast.NewFileNode(info, syntax, decls, eof)
}

func (p *parser) parseFileElement() ast.FileElement {
	switch {
	case p.atKeyword("import"):
		return p.parseImport()
	case p.atKeyword("package"):
		pkg := p.parsePackage()
		if p.sawPackage {
			p.handler.HandleError(reporter.Errorf(p.scanner.info.NodeInfo(pkg), "files cannot have more than one package declaration"))
		}
		p.sawPackage = true
		return pkg
	case p.atKeyword("option"):
		return p.parseOption(true)
	case p.atKeyword("message"):
		return p.parseMessage()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("extend"):
		return p.parseExtend()
	case p.atKeyword("service"):
		return p.parseService()
	case p.atKeyword("syntax"):
		p.errorf("syntax error: syntax declaration must be the first statement in the file")
		p.parseSyntax()
		return nil
	case p.atKeyword("edition"):
		p.errorf("syntax error: edition declaration must be the first statement in the file")
		p.parseEdition()
		return nil
	default:
		p.errorf("syntax error: unexpected %s at top level", p.describeCur())
		p.recover()
		return nil
	}
}

func (p *parser) parseSyntax() *ast.SyntaxNode {
	kw := p.mustKeyword()
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.SyntaxNode{Keyword: kw}
	}
	val, ok := p.parseStringValue()
	if !ok {
		p.recover()
		return &ast.SyntaxNode{Keyword: kw, Equals: eq}
	}
	if s := val.AsString(); s != "proto2" && s != "proto3" {
		p.handler.HandleError(reporter.Errorf(p.scanner.info.NodeInfo(val), "syntax error: unrecognized syntax %q; this parser only recognizes \"proto2\" and \"proto3\"", s))
	}
	semi, _ := p.expectRune(';')
	return &ast.SyntaxNode{Keyword: kw, Equals: eq, Syntax: val, Semicolon: semi}
}

func (p *parser) parseEdition() *ast.EditionNode {
	kw := p.mustKeyword()
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.EditionNode{Keyword: kw}
	}
	val, ok := p.parseStringValue()
	if !ok {
		p.recover()
		return &ast.EditionNode{Keyword: kw, Equals: eq}
	}
	semi, _ := p.expectRune(';')
	return &ast.EditionNode{Keyword: kw, Equals: eq, Edition: val, Semicolon: semi}
}

func (p *parser) parseImport() *ast.ImportNode {
	kw := p.mustKeyword()
	var public, weak *ast.KeywordNode
	switch {
	case p.atKeyword("public"):
		public = p.mustKeyword()
	case p.atKeyword("weak"):
		weak = p.mustKeyword()
	}
	name, ok := p.parseStringValue()
	if !ok {
		p.recover()
		return &ast.ImportNode{Keyword: kw, Public: public, Weak: weak}
	}
	semi, _ := p.expectRune(';')
	return &ast.ImportNode{Keyword: kw, Public: public, Weak: weak, Name: name, Semicolon: semi}
}

func (p *parser) parsePackage() *ast.PackageNode {
	kw := p.mustKeyword()
	name, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.PackageNode{Keyword: kw}
	}
	semi, _ := p.expectRune(';')
	return &ast.PackageNode{Keyword: kw, Name: name, Semicolon: semi}
}

// ---- message, enum, extend, service/rpc bodies ----

func (p *parser) parseMessage() *ast.MessageNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.MessageNode{Keyword: kw}
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.MessageNode{Keyword: kw, Name: name}
	}
	decls, close := p.parseMessageBody()
	var semi *ast.RuneNode
	if p.atRune(';') {
		semi = p.cur.rune_
		p.advance()
	}
	return &ast.MessageNode{Keyword: kw, Name: name, OpenBrace: open, Decls: decls, CloseBrace: close, Semicolon: semi}
}

func (p *parser) parseMessageBody() ([]ast.MessageElement, *ast.RuneNode) {
	var decls []ast.MessageElement
	for !p.atRune('}') && !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		if decl := p.parseMessageElement(); decl != nil {
			decls = append(decls, decl)
		}
	}
	close, _ := p.expectRune('}')
	return decls, close
}

func (p *parser) parseMessageElement() ast.MessageElement {
	switch {
	case p.atKeyword("message"):
		return p.parseMessage()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("extend"):
		return p.parseExtend()
	case p.atKeyword("extensions"):
		return p.parseExtensionRange()
	case p.atKeyword("reserved"):
		return p.parseReserved()
	case p.atKeyword("oneof"):
		return p.parseOneof()
	case p.atKeyword("option"):
		return p.parseOption(true)
	case p.atKeyword("map") && p.peekTok().kind == tokRune && p.peekTok().rn == '<':
		return p.parseMapField()
	case p.atKeyword("optional"), p.atKeyword("required"), p.atKeyword("repeated"):
		return p.parseFieldOrGroup()
	case p.atKeyword("group"):
		return p.parseFieldOrGroup()
	case p.atIdent():
		return p.parseFieldOrGroup()
	default:
		p.errorf("syntax error: unexpected %s in message body", p.describeCur())
		p.recover()
		return nil
	}
}

func (p *parser) parseFieldOrGroup() ast.MessageElement {
	var label *ast.KeywordNode
	if p.atKeyword("optional") || p.atKeyword("required") || p.atKeyword("repeated") {
		label = p.mustKeyword()
	}
	if p.atKeyword("group") {
		return p.parseGroup(label)
	}
	return p.parseField(label)
}

func (p *parser) parseField(label *ast.KeywordNode) *ast.FieldNode {
	fldType, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.FieldNode{Label: label}
	}
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.FieldNode{Label: label, FldType: fldType}
	}
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.FieldNode{Label: label, FldType: fldType, Name: name}
	}
	tag, ok := p.expectUint()
	if !ok {
		p.recover()
		return &ast.FieldNode{Label: label, FldType: fldType, Name: name, Equals: eq}
	}
	var opts *ast.CompactOptionsNode
	if p.atRune('[') {
		opts = p.parseCompactOptions()
	}
	semi, _ := p.expectRune(';')
	return &ast.FieldNode{Label: label, FldType: fldType, Name: name, Equals: eq, Tag: tag, Options: opts, Semicolon: semi}
}

func (p *parser) parseGroup(label *ast.KeywordNode) *ast.GroupNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.GroupNode{Label: label, Keyword: kw}
	}
	if len(name.Val) > 0 && !unicode.IsUpper(rune(name.Val[0])) {
		p.handler.HandleError(reporter.Errorf(p.scanner.info.NodeInfo(name), "group name %q must start with a capital letter", name.Val))
	}
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.GroupNode{Label: label, Keyword: kw, Name: name}
	}
	tag, ok := p.expectUint()
	if !ok {
		p.recover()
		return &ast.GroupNode{Label: label, Keyword: kw, Name: name, Equals: eq}
	}
	var opts *ast.CompactOptionsNode
	if p.atRune('[') {
		opts = p.parseCompactOptions()
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.GroupNode{Label: label, Keyword: kw, Name: name, Equals: eq, Tag: tag, Options: opts}
	}
	decls, close := p.parseMessageBody()
	var semi *ast.RuneNode
	if p.atRune(';') {
		semi = p.cur.rune_
		p.advance()
	}
	return &ast.GroupNode{
		Label: label, Keyword: kw, Name: name, Equals: eq, Tag: tag, Options: opts,
		OpenBrace: open, Decls: decls, CloseBrace: close, Semicolon: semi,
	}
}

func (p *parser) parseMapType() *ast.MapTypeNode {
	kw := p.mustKeyword()
	open, ok := p.expectRune('<')
	if !ok {
		p.recover()
		return &ast.MapTypeNode{Keyword: kw}
	}
	keyType, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.MapTypeNode{Keyword: kw, OpenAngle: open}
	}
	comma, ok := p.expectRune(',')
	if !ok {
		p.recover()
		return &ast.MapTypeNode{Keyword: kw, OpenAngle: open, KeyType: keyType}
	}
	valType, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.MapTypeNode{Keyword: kw, OpenAngle: open, KeyType: keyType, Comma: comma}
	}
	closeAngle, _ := p.expectRune('>')
	return &ast.MapTypeNode{Keyword: kw, OpenAngle: open, KeyType: keyType, Comma: comma, ValueType: valType, CloseAngle: closeAngle}
}

func (p *parser) parseMapField() *ast.MapFieldNode {
	mapType := p.parseMapType()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.MapFieldNode{MapType: mapType}
	}
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.MapFieldNode{MapType: mapType, Name: name}
	}
	tag, ok := p.expectUint()
	if !ok {
		p.recover()
		return &ast.MapFieldNode{MapType: mapType, Name: name, Equals: eq}
	}
	var opts *ast.CompactOptionsNode
	if p.atRune('[') {
		opts = p.parseCompactOptions()
	}
	semi, _ := p.expectRune(';')
	return &ast.MapFieldNode{MapType: mapType, Name: name, Equals: eq, Tag: tag, Options: opts, Semicolon: semi}
}

func (p *parser) parseOneof() *ast.OneofNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.OneofNode{Keyword: kw}
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.OneofNode{Keyword: kw, Name: name}
	}
	var decls []ast.OneofElement
	for !p.atRune('}') && !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		switch {
		case p.atKeyword("option"):
			decls = append(decls, p.parseOption(true))
		case p.atKeyword("group"):
			decls = append(decls, p.parseGroup(nil))
		case p.atIdent():
			decls = append(decls, p.parseField(nil))
		default:
			p.errorf("syntax error: unexpected %s in oneof body", p.describeCur())
			p.recover()
		}
	}
	close, _ := p.expectRune('}')
	if len(decls) == 0 {
		p.handler.HandleError(reporter.Errorf(p.scanner.info.NodeInfo(open), "oneof must contain at least one field"))
	}
	return &ast.OneofNode{Keyword: kw, Name: name, OpenBrace: open, Decls: decls, CloseBrace: close}
}

func (p *parser) parseEnum() *ast.EnumNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.EnumNode{Keyword: kw}
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.EnumNode{Keyword: kw, Name: name}
	}
	var decls []ast.EnumElement
	for !p.atRune('}') && !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		switch {
		case p.atKeyword("option"):
			decls = append(decls, p.parseOption(true))
		case p.atKeyword("reserved"):
			decls = append(decls, p.parseReserved())
		case p.atIdent():
			decls = append(decls, p.parseEnumValue())
		default:
			p.errorf("syntax error: unexpected %s in enum body", p.describeCur())
			p.recover()
		}
	}
	close, _ := p.expectRune('}')
	var semi *ast.RuneNode
	if p.atRune(';') {
		semi = p.cur.rune_
		p.advance()
	}
	return &ast.EnumNode{Keyword: kw, Name: name, OpenBrace: open, Decls: decls, CloseBrace: close, Semicolon: semi}
}

func (p *parser) parseEnumNumber() (*ast.IntValueNode, bool) {
	if p.atRune('-') {
		minus := p.cur.rune_
		p.advance()
		u, ok := p.expectUint()
		if !ok {
			return nil, false
		}
		return (&ast.NegativeIntLiteralNode{Minus: minus, Uint: u}).AsIntValueNode(), true
	}
	u, ok := p.expectUint()
	if !ok {
		return nil, false
	}
	return u.AsIntValueNode(), true
}

func (p *parser) parseEnumValue() *ast.EnumValueNode {
	name, _ := p.expectIdent()
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.EnumValueNode{Name: name}
	}
	num, ok := p.parseEnumNumber()
	if !ok {
		p.recover()
		return &ast.EnumValueNode{Name: name, Equals: eq}
	}
	var opts *ast.CompactOptionsNode
	if p.atRune('[') {
		opts = p.parseCompactOptions()
	}
	semi, _ := p.expectRune(';')
	return &ast.EnumValueNode{Name: name, Equals: eq, Number: num, Options: opts, Semicolon: semi}
}

func (p *parser) parseRange() (*ast.RangeNode, bool) {
	start, ok := p.parseEnumNumber()
	if !ok {
		return nil, false
	}
	r := &ast.RangeNode{StartVal: start}
	if p.atKeyword("to") {
		r.To = p.mustKeyword()
		if p.atKeyword("max") {
			r.Max = p.mustKeyword()
		} else if end, ok := p.parseEnumNumber(); ok {
			r.EndVal = end
		}
	}
	return r, true
}

func (p *parser) parseExtensionRange() *ast.ExtensionRangeNode {
	kw := p.mustKeyword()
	var ranges []*ast.RangeNode
	var commas []*ast.RuneNode
	for {
		r, ok := p.parseRange()
		if !ok {
			break
		}
		ranges = append(ranges, r)
		if !p.atRune(',') {
			break
		}
		commas = append(commas, p.cur.rune_)
		p.advance()
	}
	var opts *ast.CompactOptionsNode
	if p.atRune('[') {
		opts = p.parseCompactOptions()
	}
	semi, _ := p.expectRune(';')
	return &ast.ExtensionRangeNode{Keyword: kw, Ranges: ranges, Commas: commas, Options: opts, Semicolon: semi}
}

func (p *parser) parseReserved() *ast.ReservedNode {
	kw := p.mustKeyword()
	switch {
	case p.atString():
		return p.parseReservedNames(kw)
	case p.atIdent():
		return p.parseReservedIdentifiers(kw)
	default:
		return p.parseReservedRanges(kw)
	}
}

func (p *parser) parseReservedNames(kw *ast.KeywordNode) *ast.ReservedNode {
	var names []*ast.StringValueNode
	var commas []*ast.RuneNode
	for {
		sv, ok := p.parseStringValue()
		if !ok {
			break
		}
		names = append(names, sv)
		if !p.atRune(',') {
			break
		}
		commas = append(commas, p.cur.rune_)
		p.advance()
	}
	semi, _ := p.expectRune(';')
	return &ast.ReservedNode{Keyword: kw, Names: names, Commas: commas, Semicolon: semi}
}

func (p *parser) parseReservedIdentifiers(kw *ast.KeywordNode) *ast.ReservedNode {
	var idents []*ast.IdentNode
	var commas []*ast.RuneNode
	for {
		id, ok := p.expectIdent()
		if !ok {
			break
		}
		idents = append(idents, id)
		if !p.atRune(',') {
			break
		}
		commas = append(commas, p.cur.rune_)
		p.advance()
	}
	semi, _ := p.expectRune(';')
	return &ast.ReservedNode{Keyword: kw, Identifiers: idents, Commas: commas, Semicolon: semi}
}

func (p *parser) parseReservedRanges(kw *ast.KeywordNode) *ast.ReservedNode {
	var ranges []*ast.RangeNode
	var commas []*ast.RuneNode
	for {
		r, ok := p.parseRange()
		if !ok {
			break
		}
		ranges = append(ranges, r)
		if !p.atRune(',') {
			break
		}
		commas = append(commas, p.cur.rune_)
		p.advance()
	}
	semi, _ := p.expectRune(';')
	return &ast.ReservedNode{Keyword: kw, Ranges: ranges, Commas: commas, Semicolon: semi}
}

func (p *parser) parseExtend() *ast.ExtendNode {
	kw := p.mustKeyword()
	extendee, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.ExtendNode{Keyword: kw}
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.ExtendNode{Keyword: kw, Extendee: extendee}
	}
	var decls []ast.ExtendElement
	for !p.atRune('}') && !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		switch {
		case p.atKeyword("group"):
			decls = append(decls, p.parseGroup(nil))
		case p.atKeyword("optional"), p.atKeyword("required"), p.atKeyword("repeated"):
			label := p.mustKeyword()
			if p.atKeyword("group") {
				decls = append(decls, p.parseGroup(label))
			} else {
				decls = append(decls, p.parseField(label))
			}
		case p.atIdent():
			decls = append(decls, p.parseField(nil))
		default:
			p.errorf("syntax error: unexpected %s in extend body", p.describeCur())
			p.recover()
		}
	}
	close, _ := p.expectRune('}')
	var semi *ast.RuneNode
	if p.atRune(';') {
		semi = p.cur.rune_
		p.advance()
	}
	return &ast.ExtendNode{Keyword: kw, Extendee: extendee, OpenBrace: open, Decls: decls, CloseBrace: close, Semicolon: semi}
}

func (p *parser) parseService() *ast.ServiceNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.ServiceNode{Keyword: kw}
	}
	open, ok := p.expectRune('{')
	if !ok {
		p.recover()
		return &ast.ServiceNode{Keyword: kw, Name: name}
	}
	var decls []ast.ServiceElement
	for !p.atRune('}') && !p.atEOF() {
		if p.atRune(';') {
			semi := p.cur.rune_
			p.advance()
			decls = append(decls, ast.NewEmptyDeclNode(semi))
			continue
		}
		switch {
		case p.atKeyword("option"):
			decls = append(decls, p.parseOption(true))
		case p.atKeyword("rpc"):
			decls = append(decls, p.parseRPC())
		default:
			p.errorf("syntax error: unexpected %s in service body", p.describeCur())
			p.recover()
		}
	}
	close, _ := p.expectRune('}')
	var semi *ast.RuneNode
	if p.atRune(';') {
		semi = p.cur.rune_
		p.advance()
	}
	return &ast.ServiceNode{Keyword: kw, Name: name, OpenBrace: open, Decls: decls, CloseBrace: close, Semicolon: semi}
}

func (p *parser) parseRPCType() *ast.RPCTypeNode {
	open, ok := p.expectRune('(')
	if !ok {
		p.recover()
		return &ast.RPCTypeNode{}
	}
	var stream *ast.KeywordNode
	if p.atKeyword("stream") {
		stream = p.mustKeyword()
	}
	msgType, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.RPCTypeNode{OpenParen: open, Stream: stream}
	}
	close, ok := p.expectRune(')')
	if !ok {
		return &ast.RPCTypeNode{OpenParen: open, Stream: stream, MessageType: msgType}
	}
	return &ast.RPCTypeNode{OpenParen: open, Stream: stream, MessageType: msgType, CloseParen: close}
}

func (p *parser) parseRPC() *ast.RPCNode {
	kw := p.mustKeyword()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return &ast.RPCNode{Keyword: kw}
	}
	if !p.atRune('(') {
		p.errorf("syntax error: expecting '(' but found %s", p.describeCur())
		p.recover()
		return &ast.RPCNode{Keyword: kw, Name: name}
	}
	input := p.parseRPCType()
	returnsKw, ok := p.expectKeyword("returns")
	if !ok {
		p.recover()
		return &ast.RPCNode{Keyword: kw, Name: name, Input: input}
	}
	if !p.atRune('(') {
		p.errorf("syntax error: expecting '(' but found %s", p.describeCur())
		p.recover()
		return &ast.RPCNode{Keyword: kw, Name: name, Input: input, Returns: returnsKw}
	}
	output := p.parseRPCType()
	node := &ast.RPCNode{Keyword: kw, Name: name, Input: input, Returns: returnsKw, Output: output}
	if p.atRune('{') {
		open := p.cur.rune_
		p.advance()
		var decls []ast.RPCElement
		for !p.atRune('}') && !p.atEOF() {
			if p.atRune(';') {
				semi := p.cur.rune_
				p.advance()
				decls = append(decls, ast.NewEmptyDeclNode(semi))
				continue
			}
			if p.atKeyword("option") {
				decls = append(decls, p.parseOption(true))
				continue
			}
			p.errorf("syntax error: unexpected %s in rpc body", p.describeCur())
			p.recover()
		}
		close, _ := p.expectRune('}')
		node.OpenBrace, node.Decls, node.CloseBrace = open, decls, close
	} else {
		semi, _ := p.expectRune(';')
		node.Semicolon = semi
	}
	return node
}

// ---- options and values ----

func (p *parser) parseOption(requireKeyword bool) *ast.OptionNode {
	var kw *ast.KeywordNode
	if requireKeyword {
		var ok bool
		kw, ok = p.expectKeyword("option")
		if !ok {
			p.recover()
			return nil
		}
	}
	name, ok := p.parseOptionName()
	if !ok {
		p.recover()
		return &ast.OptionNode{Keyword: kw}
	}
	eq, ok := p.expectRune('=')
	if !ok {
		p.recover()
		return &ast.OptionNode{Keyword: kw, Name: name}
	}
	val, ok := p.parseValue()
	if !ok {
		p.recover()
		return &ast.OptionNode{Keyword: kw, Name: name, Equals: eq}
	}
	node := &ast.OptionNode{Keyword: kw, Name: name, Equals: eq, Val: val}
	if requireKeyword {
		if p.atRune(';') {
			node.Semicolon = p.cur.rune_
			p.advance()
		} else {
			p.errorf("syntax error: expecting ';' but found %s", p.describeCur())
		}
	}
	return node
}

func (p *parser) parseCompactOptions() *ast.CompactOptionsNode {
	open, _ := p.expectRune('[')
	var opts []*ast.OptionNode
	for {
		opt := p.parseOption(false)
		if opt == nil {
			break
		}
		opts = append(opts, opt)
		if p.atRune(',') {
			opt.Semicolon = p.cur.rune_
			p.advance()
			continue
		}
		break
	}
	close, _ := p.expectRune(']')
	return &ast.CompactOptionsNode{OpenBracket: open, Options: opts, CloseBracket: close}
}

func (p *parser) parseOptionName() (*ast.OptionNameNode, bool) {
	var parts []*ast.FieldReferenceNode
	var dots []*ast.RuneNode
	part, ok := p.parseFieldReference(false)
	if !ok {
		return nil, false
	}
	parts = append(parts, part)
	for p.atRune('.') {
		dot := p.cur.rune_
		p.advance()
		part, ok = p.parseFieldReference(false)
		if !ok {
			break
		}
		dots = append(dots, dot)
		parts = append(parts, part)
	}
	return ast.NewOptionNameNode(parts, dots), true
}

// parseFieldReference parses a single option-name component or message
// literal field name: a plain identifier, a parenthesized extension name,
// or (when allowBracket is true, i.e. inside a message literal) a
// bracketed extension name or Any type URL reference.
func (p *parser) parseFieldReference(allowBracket bool) (*ast.FieldReferenceNode, bool) {
	switch {
	case p.atRune('('):
		open := p.cur.rune_
		p.advance()
		name, ok := p.parseIdentValue()
		if !ok {
			p.recover()
			return &ast.FieldReferenceNode{Open: open}, true
		}
		close, ok := p.expectRune(')')
		if !ok {
			return &ast.FieldReferenceNode{Open: open, Name: name}, true
		}
		return ast.NewExtensionFieldReferenceNode(open, name, close), true
	case allowBracket && p.atRune('['):
		return p.parseBracketedFieldReference()
	case p.atIdent():
		id, _ := p.expectIdent()
		return ast.NewFieldReferenceNode(id), true
	default:
		p.errorf("syntax error: expecting field name but found %s", p.describeCur())
		return nil, false
	}
}

func (p *parser) parseBracketedFieldReference() (*ast.FieldReferenceNode, bool) {
	open := p.cur.rune_
	p.advance()
	name, ok := p.parseIdentValue()
	if !ok {
		p.recover()
		return &ast.FieldReferenceNode{Open: open}, true
	}
	if p.atRune('/') {
		slash := p.cur.rune_
		p.advance()
		typeName, ok := p.parseIdentValue()
		if !ok {
			p.recover()
			return &ast.FieldReferenceNode{Open: open, URLPrefix: name, Slash: slash}, true
		}
		close, _ := p.expectRune(']')
		return ast.NewAnyTypeReferenceNode(open, name, slash, typeName, close), true
	}
	close, ok := p.expectRune(']')
	if !ok {
		return &ast.FieldReferenceNode{Open: open, Name: name}, true
	}
	return ast.NewExtensionFieldReferenceNode(open, name, close), true
}

// parseValue parses any scalar, identifier, array, or message-literal value
// as used on the right-hand side of an option or message-literal field.
func (p *parser) parseValue() (*ast.ValueNode, bool) {
	switch {
	case p.atString():
		sv, ok := p.parseStringValue()
		if !ok {
			return nil, false
		}
		return sv.AsValueNode(), true
	case p.atInt():
		u := p.cur.uint
		p.advance()
		return u.AsValueNode(), true
	case p.atFloat():
		f := p.cur.float
		p.advance()
		return f.AsValueNode(), true
	case p.atRune('-'):
		return p.parseNegativeValue()
	case p.atKeyword("true"), p.atKeyword("false"):
		id := p.cur.ident
		p.advance()
		return id.AsValueNode(), true
	case p.atKeyword("inf"), p.atKeyword("infinity"), p.atKeyword("nan"):
		id := p.cur.ident
		p.advance()
		return ast.NewSpecialFloatLiteralNode(id).AsValueNode(), true
	case p.atRune('{'), p.atRune('<'):
		return p.parseMessageLiteral().AsValueNode(), true
	case p.atRune('['):
		return p.parseArrayLiteralValue()
	case p.atIdent():
		idv, ok := p.parseIdentValue()
		if !ok {
			return nil, false
		}
		if v := identValueToValue(idv); v != nil {
			return v, true
		}
		return nil, false
	default:
		p.errorf("syntax error: expecting value but found %s", p.describeCur())
		return nil, false
	}
}

func (p *parser) parseNegativeValue() (*ast.ValueNode, bool) {
	minus := p.cur.rune_
	p.advance()
	switch {
	case p.atInt():
		u := p.cur.uint
		p.advance()
		return (&ast.NegativeIntLiteralNode{Minus: minus, Uint: u}).AsValueNode(), true
	case p.atFloat():
		f := p.cur.float
		p.advance()
		return (&ast.SignedFloatLiteralNode{Sign: minus, Float: f}).AsValueNode(), true
	case p.atKeyword("inf"), p.atKeyword("infinity"), p.atKeyword("nan"):
		id := p.cur.ident
		p.advance()
		sp := ast.NewSpecialFloatLiteralNode(id)
		sp.Val = -sp.Val
		return sp.AsValueNode(), true
	default:
		p.errorf("syntax error: expecting number after '-' but found %s", p.describeCur())
		return nil, false
	}
}

func (p *parser) parseMessageLiteral() *ast.MessageLiteralNode {
	open := p.cur.rune_
	var closeRune rune = '}'
	if p.atRune('<') {
		closeRune = '>'
	}
	p.advance()
	var elements []*ast.MessageFieldNode
	var seps []*ast.RuneNode
	for !p.atRune(closeRune) && !p.atEOF() {
		field, ok := p.parseMessageField()
		if !ok {
			p.recover()
			break
		}
		elements = append(elements, field)
		var sep *ast.RuneNode
		if p.atRune(',') || p.atRune(';') {
			sep = p.cur.rune_
			p.advance()
		}
		seps = append(seps, sep)
	}
	close, _ := p.expectRune(closeRune)
	return &ast.MessageLiteralNode{Open: open, Elements: elements, Seps: seps, Close: close}
}

func (p *parser) parseMessageField() (*ast.MessageFieldNode, bool) {
	name, ok := p.parseFieldReference(true)
	if !ok {
		return nil, false
	}
	var sep *ast.RuneNode
	if p.atRune(':') {
		sep = p.cur.rune_
		p.advance()
	}
	isMsgOrGroup := p.atRune('{') || p.atRune('<')
	if sep == nil && !isMsgOrGroup {
		p.errorf("syntax error: missing ':' for field %q", name.Value())
	}
	var val *ast.ValueNode
	var ok2 bool
	switch {
	case isMsgOrGroup:
		val, ok2 = p.parseMessageLiteral().AsValueNode(), true
	case p.atRune('['):
		val, ok2 = p.parseArrayLiteralValue()
	default:
		val, ok2 = p.parseValue()
	}
	if !ok2 {
		return &ast.MessageFieldNode{Name: name, Sep: sep}, false
	}
	return &ast.MessageFieldNode{Name: name, Sep: sep, Val: val}, true
}

func (p *parser) parseArrayLiteralValue() (*ast.ValueNode, bool) {
	open := p.cur.rune_
	p.advance()
	var elements []*ast.ValueNode
	var commas []*ast.RuneNode
	for !p.atRune(']') && !p.atEOF() {
		var v *ast.ValueNode
		var ok bool
		if p.atRune('{') || p.atRune('<') {
			v, ok = p.parseMessageLiteral().AsValueNode(), true
		} else {
			v, ok = p.parseValue()
		}
		if !ok {
			p.recover()
			break
		}
		elements = append(elements, v)
		if p.atRune(',') {
			commas = append(commas, p.cur.rune_)
			p.advance()
			continue
		}
		break
	}
	close, _ := p.expectRune(']')
	lit := &ast.ArrayLiteralNode{OpenBracket: open, Elements: elements, Commas: commas, CloseBracket: close}
	return lit.AsValueNode(), true
}
