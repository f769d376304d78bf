// Package mdit parses CommonMark Markdown into a flat token stream and
// renders HTML from it.
//
// Parsing runs in three rule chains. Core rules normalise the input and
// drive the block and inline tokenizers; block rules cut the document into
// paragraphs, lists, quotes, fences, tables and friends; inline rules turn
// each block's text into emphasis, links, code spans and text. Every chain
// is a Ruler that can be reordered, extended and toggled at runtime.
//
// Tokens are flat: a block element is an opening token, its content and a
// closing token at matching levels. Inline tokens carry their parsed
// children. Line maps record the source lines each block came from.
//
// Core properties:
//   - CommonMark block and inline rules, including the delimiter algorithm
//     with the rule of 3
//   - Incremental StreamParser that re-parses only the tail of a document
//     when text is appended
//   - Fence-aware chunked fallback for very large inputs
//   - Optional linkify, typographer, front matter and task lists
//
// Example:
//
//	p := mdit.New(mdit.WithLinkify(true))
//	html := p.Render("# Hello\n\nMarkdown in, HTML out.\n", nil)
//
// For streamed input, such as model output arriving a few characters at a
// time, feed a StreamBuffer and render after each boundary flush:
//
//	sp := p.NewStreamParser()
//	buf := mdit.NewStreamBuffer(sp, nil)
//	for chunk := range chunks {
//		buf.Feed(chunk)
//		if tokens, ok := buf.FlushIfBoundary(); ok {
//			fmt.Print(p.Renderer.Render(tokens, buf.Env()))
//		}
//	}
//
// Reader to writer rendering is available through Render, StreamSimulate
// and HTTPRender.
package mdit
