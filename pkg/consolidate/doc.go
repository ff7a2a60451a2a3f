// Package consolidate merges a year's validated chunk files into a single
// SQLite artifact and verifies the result before cleaning up.
package consolidate
