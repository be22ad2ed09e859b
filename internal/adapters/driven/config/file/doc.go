// Package file provides file-based implementations of the configuration
// ports: a TOML config store with flat dotted keys and a prompt store
// backed by user-editable text files.
package file
