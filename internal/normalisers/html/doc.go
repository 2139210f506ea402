// Package html provides a Normaliser implementation for HTML pages.
// It keeps the main content area, drops navigation chrome, scripts and
// styles, and converts what remains to plain searchable text.
package html
