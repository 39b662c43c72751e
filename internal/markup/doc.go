// Package markup understands the change markers latexdiff writes into LaTeX
// sources. It strips the preamble extension, locates addition and deletion
// spans in document order and extracts their payloads. It never rewrites a
// buffer; the resolve package does that.
package markup
