package opendap

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DAP2 base type names.
const (
	typeByte    = "Byte"
	typeInt16   = "Int16"
	typeUInt16  = "UInt16"
	typeInt32   = "Int32"
	typeUInt32  = "UInt32"
	typeFloat32 = "Float32"
	typeFloat64 = "Float64"
	typeString  = "String"
	typeURL     = "Url"
)

// Container kinds.
const (
	kindBase      = "base"
	kindStructure = "Structure"
	kindGrid      = "Grid"
	kindSequence  = "Sequence"
)

// decl is one DDS declaration: a (possibly dimensioned) base type variable,
// or a container of further declarations.
type decl struct {
	Kind     string
	Type     string // Base type, for kindBase.
	Name     string
	Dims     []Dim
	Children []*decl // Structure/Sequence members, or Grid array followed by maps.
}

func (d *decl) size() int {
	n := 1
	for _, dim := range d.Dims {
		n *= dim.Len
	}
	return n
}

// find returns the first declaration named name, searching depth first.
func (d *decl) find(name string) *decl {
	if d.Name == name {
		return d
	}
	for _, c := range d.Children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// array returns the data-carrying array of a declaration: the declaration
// itself for base types, the ARRAY member for grids.
func (d *decl) array() *decl {
	if d.Kind == kindGrid && len(d.Children) > 0 {
		return d.Children[0]
	}
	return d
}

// token kinds.
const (
	tokIdent = iota
	tokString
	tokPunct
	tokEOF
)

type token struct {
	kind int
	text string
}

type lexer struct {
	src string
	pos int
}

func isPunct(c byte) bool {
	return strings.IndexByte("{}[];=:,", c) >= 0
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}

	c := l.src[l.pos]
	switch {
	case isPunct(c):
		l.pos++
		return token{kind: tokPunct, text: string(c)}, nil
	case c == '"':
		var sb strings.Builder
		l.pos++
		for l.pos < len(l.src) {
			ch := l.src[l.pos]
			if ch == '\\' && l.pos+1 < len(l.src) {
				sb.WriteByte(l.src[l.pos+1])
				l.pos += 2
				continue
			}
			if ch == '"' {
				l.pos++
				return token{kind: tokString, text: sb.String()}, nil
			}
			sb.WriteByte(ch)
			l.pos++
		}
		return token{}, fmt.Errorf("unterminated string at offset %d", l.pos)
	default:
		start := l.pos
		for l.pos < len(l.src) {
			ch := l.src[l.pos]
			if isPunct(ch) || ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '"' {
				break
			}
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos]}, nil
	}
}

type parser struct {
	lex  lexer
	peek *token
}

func newParser(src string) *parser {
	return &parser{lex: lexer{src: src}}
}

func (p *parser) next() (token, error) {
	if p.peek != nil {
		t := *p.peek
		p.peek = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) lookahead() (token, error) {
	if p.peek == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peek = &t
	}
	return *p.peek, nil
}

func (p *parser) expect(text string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.text != text || t.kind == tokString {
		return fmt.Errorf("expected %q, got %q", text, t.text)
	}
	return nil
}

func (p *parser) ident() (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokIdent {
		return "", fmt.Errorf("expected identifier, got %q", t.text)
	}
	return t.text, nil
}

// parseDDS parses a Dataset Descriptor Structure.
func parseDDS(src string) (*decl, error) {
	p := newParser(src)
	kw, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid DDS: %w", err)
	}
	if !strings.EqualFold(kw, "Dataset") {
		return nil, fmt.Errorf("invalid DDS: expected Dataset, got %q", kw)
	}
	if err := p.expect("{"); err != nil {
		return nil, fmt.Errorf("invalid DDS: %w", err)
	}
	children, err := p.declList()
	if err != nil {
		return nil, fmt.Errorf("invalid DDS: %w", err)
	}
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid DDS dataset name: %w", err)
	}
	if err := p.expect(";"); err != nil {
		return nil, fmt.Errorf("invalid DDS: %w", err)
	}
	return &decl{Kind: kindStructure, Name: name, Children: children}, nil
}

// declList parses declarations up to and including the closing brace.
func (p *parser) declList() ([]*decl, error) {
	var out []*decl
	for {
		t, err := p.lookahead()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			return nil, fmt.Errorf("unexpected end of DDS")
		}
		if t.kind == tokPunct && t.text == "}" {
			_, _ = p.next()
			return out, nil
		}
		d, err := p.declaration()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

func (p *parser) declaration() (*decl, error) {
	kw, err := p.ident()
	if err != nil {
		return nil, err
	}

	switch {
	case strings.EqualFold(kw, kindStructure), strings.EqualFold(kw, kindSequence):
		if err := p.expect("{"); err != nil {
			return nil, err
		}
		children, err := p.declList()
		if err != nil {
			return nil, err
		}
		d := &decl{Kind: canonicalKind(kw), Children: children}
		if err := p.varName(d); err != nil {
			return nil, err
		}
		return d, nil

	case strings.EqualFold(kw, kindGrid):
		if err := p.expect("{"); err != nil {
			return nil, err
		}
		if err := p.section("ARRAY"); err != nil {
			return nil, err
		}
		arr, err := p.declaration()
		if err != nil {
			return nil, err
		}
		if err := p.section("MAPS"); err != nil {
			return nil, err
		}
		maps, err := p.declList()
		if err != nil {
			return nil, err
		}
		d := &decl{Kind: kindGrid, Children: append([]*decl{arr}, maps...)}
		if err := p.varName(d); err != nil {
			return nil, err
		}
		return d, nil

	default:
		typ, ok := baseType(kw)
		if !ok {
			return nil, fmt.Errorf("unsupported DDS type %q", kw)
		}
		d := &decl{Kind: kindBase, Type: typ}
		if err := p.varName(d); err != nil {
			return nil, err
		}
		return d, nil
	}
}

func (p *parser) section(name string) error {
	kw, err := p.ident()
	if err != nil {
		return err
	}
	if !strings.EqualFold(kw, name) {
		return fmt.Errorf("expected %s section, got %q", name, kw)
	}
	return p.expect(":")
}

// varName parses "name[dim = n]...;" into d.
func (p *parser) varName(d *decl) error {
	name, err := p.ident()
	if err != nil {
		return err
	}
	d.Name = unescapeName(name)

	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if t.kind == tokPunct && t.text == ";" {
			return nil
		}
		if t.kind != tokPunct || t.text != "[" {
			return fmt.Errorf("unexpected %q after %s", t.text, d.Name)
		}

		first, err := p.ident()
		if err != nil {
			return err
		}
		dim := Dim{}
		if nt, _ := p.lookahead(); nt.kind == tokPunct && nt.text == "=" {
			_, _ = p.next()
			dim.Name = unescapeName(first)
			if first, err = p.ident(); err != nil {
				return err
			}
		}
		n, err := strconv.Atoi(first)
		if err != nil {
			return fmt.Errorf("invalid dimension size %q for %s", first, d.Name)
		}
		dim.Len = n
		d.Dims = append(d.Dims, dim)
		if err := p.expect("]"); err != nil {
			return err
		}
	}
}

func canonicalKind(kw string) string {
	if strings.EqualFold(kw, kindSequence) {
		return kindSequence
	}
	return kindStructure
}

func baseType(kw string) (string, bool) {
	for _, t := range []string{typeByte, typeInt16, typeUInt16, typeInt32, typeUInt32, typeFloat32, typeFloat64, typeString, typeURL} {
		if strings.EqualFold(kw, t) {
			return t, true
		}
	}
	return "", false
}

func unescapeName(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// attrTable maps container (variable) name to attribute name to value.
type attrTable map[string]map[string]Attr

// parseDAS parses a Dataset Attribute Structure. Nested containers are
// flattened with dotted names; attributes of a container belong to it.
func parseDAS(src string) (attrTable, error) {
	p := newParser(src)
	kw, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid DAS: %w", err)
	}
	if !strings.EqualFold(kw, "Attributes") {
		return nil, fmt.Errorf("invalid DAS: expected Attributes, got %q", kw)
	}
	if err := p.expect("{"); err != nil {
		return nil, fmt.Errorf("invalid DAS: %w", err)
	}
	table := attrTable{}
	if err := p.attrContainer(table, ""); err != nil {
		return nil, fmt.Errorf("invalid DAS: %w", err)
	}
	return table, nil
}

func (p *parser) attrContainer(table attrTable, prefix string) error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		switch {
		case t.kind == tokEOF:
			return fmt.Errorf("unexpected end of DAS")
		case t.kind == tokPunct && t.text == "}":
			return nil
		case t.kind != tokIdent:
			return fmt.Errorf("unexpected %q in DAS", t.text)
		}

		nt, err := p.lookahead()
		if err != nil {
			return err
		}
		if nt.kind == tokPunct && nt.text == "{" {
			_, _ = p.next()
			name := unescapeName(t.text)
			if prefix != "" {
				name = prefix + "." + name
			}
			if _, ok := table[name]; !ok {
				table[name] = map[string]Attr{}
			}
			if err := p.attrContainer(table, name); err != nil {
				return err
			}
			continue
		}

		// Attribute: type name value[, value...];
		typ := t.text
		name, err := p.ident()
		if err != nil {
			return err
		}
		attr, err := p.attrValues(typ)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
		if _, ok := table[prefix]; !ok {
			table[prefix] = map[string]Attr{}
		}
		table[prefix][unescapeName(name)] = attr
	}
}

// parseAttrNumber parses a numeric attribute at its declared width, so
// sentinels compare equal to values decoded from the same type.
func parseAttrNumber(typ, text string) (float64, error) {
	switch {
	case strings.EqualFold(typ, typeFloat32):
		v, err := strconv.ParseFloat(text, 32)
		return float64(float32(v)), err
	case strings.EqualFold(typ, typeByte):
		v, err := strconv.ParseUint(text, 10, 8)
		return float64(v), err
	case strings.EqualFold(typ, typeInt16):
		v, err := strconv.ParseInt(text, 10, 16)
		return float64(v), err
	case strings.EqualFold(typ, typeUInt16):
		v, err := strconv.ParseUint(text, 10, 16)
		return float64(v), err
	case strings.EqualFold(typ, typeInt32):
		v, err := strconv.ParseInt(text, 10, 32)
		return float64(v), err
	case strings.EqualFold(typ, typeUInt32):
		v, err := strconv.ParseUint(text, 10, 32)
		return float64(v), err
	default:
		return strconv.ParseFloat(text, 64)
	}
}

func (p *parser) attrValues(typ string) (Attr, error) {
	var attr Attr
	var texts []string
	textual := strings.EqualFold(typ, typeString) || strings.EqualFold(typ, typeURL)
	for {
		t, err := p.next()
		if err != nil {
			return Attr{}, err
		}
		if t.kind == tokEOF {
			return Attr{}, fmt.Errorf("unexpected end of DAS")
		}
		if t.kind == tokPunct && t.text == ";" {
			break
		}
		if t.kind == tokPunct && t.text == "," {
			continue
		}
		if textual {
			texts = append(texts, t.text)
			continue
		}
		v, err := parseAttrNumber(typ, t.text)
		if err != nil {
			return Attr{}, fmt.Errorf("invalid %s value %q", typ, t.text)
		}
		attr.Values = append(attr.Values, v)
	}
	attr.Text = strings.Join(texts, ", ")
	return attr, nil
}
