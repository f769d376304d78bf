package mdit

import (
	"io"
	"strings"
	"testing"
)

func TestStreamParserCacheHitAllocations(t *testing.T) {
	sp := New().NewStreamParser()
	env := NewEnv()
	src := sectionDoc(5)
	sp.Parse(src, env)
	allocs := testing.AllocsPerRun(100, func() {
		_ = sp.Parse(src, env)
	})
	if allocs > 0 {
		t.Fatalf("cache hit allocated: got %.2f", allocs)
	}
}

func TestRenderAllocations(t *testing.T) {
	p := New()
	tokens := p.Parse(sectionDoc(20), nil)
	allocs := testing.AllocsPerRun(50, func() {
		_ = p.Renderer.RenderTo(io.Discard, tokens, nil)
	})
	if allocs > 6000 {
		t.Fatalf("too many allocations per render: got %.2f", allocs)
	}
}

func TestParseAllocationsScale(t *testing.T) {
	p := New()
	small := sectionDoc(10)
	large := strings.Repeat(small, 10)
	a := testing.AllocsPerRun(10, func() { _ = p.Parse(small, nil) })
	b := testing.AllocsPerRun(10, func() { _ = p.Parse(large, nil) })
	if b > 15*a {
		t.Fatalf("parse allocations grow faster than input: %.0f for 1x, %.0f for 10x", a, b)
	}
}
