// Package mcp provides an MCP (Model Context Protocol) server adapter for Rescout.
// It lets AI assistants search indexed candidates and inspect derived profiles.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
