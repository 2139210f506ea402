// Package normalisers provides the content-type registry that turns
// ingested knowledge into plain-text documents. Each format lives in its
// own subpackage (plaintext, markdown, html) and is registered with the
// Registry at startup.
package normalisers
