/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package palette manages the template tokens offered for quick annotation
// insertion and the armed-token state that feeds canvas taps.
package palette

import (
	"strings"

	"goproofwriter/internal/domain"
)

// Token is one palette entry. Text is inserted verbatim into a new
// annotation; Color suggests the annotation color (empty means the
// current default).
type Token struct {
	Name  string `yaml:"name"`
	Text  string `yaml:"text"`
	Color string `yaml:"color,omitempty"`
}

// DefaultCatalog returns the built-in geometric symbol tokens.
func DefaultCatalog() []Token {
	return []Token{
		{Name: "angle", Text: "∠"},
		{Name: "triangle", Text: "△"},
		{Name: "parallel", Text: "∥"},
		{Name: "perpendicular", Text: "⊥"},
		{Name: "congruent", Text: "≅"},
		{Name: "similar", Text: "∽"},
		{Name: "degree", Text: "°"},
		{Name: "therefore", Text: "∴"},
		{Name: "because", Text: "∵"},
		{Name: "right-angle", Text: "∟"},
		{Name: "circle", Text: "⊙"},
		{Name: "segment", Text: "AB"},
	}
}

// Palette holds the token catalog and at most one armed token. Arming a
// token makes the next canvas tap insert it; arming the same token again
// disarms it. A plain tap with nothing armed selects or inserts free text
// instead, which is the caller's concern.
type Palette struct {
	tokens []Token
	armed  int // index into tokens, -1 when nothing armed
}

// New builds a palette from the given catalog; nil means the default catalog.
func New(tokens []Token) *Palette {
	if tokens == nil {
		tokens = DefaultCatalog()
	}
	return &Palette{tokens: tokens, armed: -1}
}

// Tokens returns a copy of the catalog in display order.
func (p *Palette) Tokens() []Token {
	out := make([]Token, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// Add appends a token to the catalog. Tokens with empty text are ignored;
// a token with a duplicate name replaces the existing entry.
func (p *Palette) Add(t Token) {
	if strings.TrimSpace(t.Text) == "" {
		return
	}
	for i, e := range p.tokens {
		if e.Name == t.Name && t.Name != "" {
			p.tokens[i] = t
			return
		}
	}
	p.tokens = append(p.tokens, t)
}

// Arm toggles the named token. Arming a token that is already armed clears
// the pending state; arming a different token replaces it. Returns false
// when the name is not in the catalog (pending state is untouched).
func (p *Palette) Arm(name string) bool {
	for i, t := range p.tokens {
		if t.Name == name {
			if p.armed == i {
				p.armed = -1
			} else {
				p.armed = i
			}
			return true
		}
	}
	return false
}

// Disarm clears any pending token.
func (p *Palette) Disarm() {
	p.armed = -1
}

// Armed reports the currently pending token, if any.
func (p *Palette) Armed() (Token, bool) {
	if p.armed < 0 || p.armed >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.armed], true
}

// Consume returns the pending token and clears the armed state. Insertion
// is one-shot: each arm feeds exactly one tap.
func (p *Palette) Consume() (Token, bool) {
	t, ok := p.Armed()
	p.armed = -1
	return t, ok
}

// ColorFor resolves the effective annotation color for a token, falling
// back to the first default palette color.
func ColorFor(t Token) string {
	if t.Color != "" {
		return t.Color
	}
	return domain.DefaultColors[0]
}
