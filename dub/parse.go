package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// Array is a bracketed list: [60 62 (64 67)].
type Array []Node

// Tuple is a parenthesized list: (60 64 67).
type Tuple []Node

// MatchExpr selects steps of a pattern, e.g. '1,3/2 selects the second 8th note of
// beats one and three.
type MatchExpr struct {
	matchers []matchItem
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.value(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) value(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeString:
		return String(token.text[1 : len(token.text)-1]), nil
	case typeFloat:
		f, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case typeInt:
		n, err := strconv.Atoi(token.text)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case typeLeftBracket:
		items, err := p.list(typeRightBracket)
		return Array(items), err
	case typeLeftParen:
		items, err := p.list(typeRightParen)
		return Tuple(items), err
	case typeQuote:
		return p.matchExpr(p.next())
	default:
		return nil, unexpected(token)
	}
}

// list parses values up to the closing token. Commas between values are optional.
func (p *parser) list(end tokenType) ([]Node, error) {
	var items []Node
	for {
		token := p.next()
		switch token.typ {
		case end:
			return items, nil
		case typeComma:
			continue
		case typeEOF:
			return items, fmt.Errorf("unexpected end of input: unclosed list")
		case typeQuote:
			return items, unexpected(token)
		}
		item, err := p.value(token)
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

func (p *parser) matchExpr(token token) (MatchExpr, error) {
	match := MatchExpr{}
	current := matchItem{}

	for {
		switch token.typ {
		case typeInt:
			if p.peek().typ == typeColon {
				p.next()
				start, err := strconv.Atoi(token.text)
				if err != nil {
					return match, err
				}
				t := p.next()
				if t.typ != typeInt {
					return match, unexpected(t)
				}
				end, err := strconv.Atoi(t.text)
				if err != nil {
					return match, err
				}
				current.matcher = rangeMatch{start: start, end: end}
			} else {
				list, err := p.listMatch(token)
				if err != nil {
					return match, err
				}
				current.matcher = list
			}
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return match, unexpected(token)
		}

		if p.peek().typ != typeSlash {
			break
		}
		// every slash moves one subdivision down
		match.matchers = append(match.matchers, current)
		current = matchItem{level: current.level}
		for p.peek().typ == typeSlash {
			p.next()
			current.level++
		}
		token = p.next()
	}

	match.matchers = append(match.matchers, current)
	return match, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	var list listMatch
	for t := start; ; t = p.next() {
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return list, err
		}
		list = append(list, n)
		if p.peek().typ != typeComma {
			return list, nil
		}
		p.next()
		if p.peek().typ != typeInt {
			return list, unexpected(p.peek())
		}
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
