// Package cmd wires the cobra-based CLI for notioncms: credential setup, page and collection
// rendering from the terminal, Markdown uploads, and the HTTP content server.
package cmd
