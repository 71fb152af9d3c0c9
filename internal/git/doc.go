// Package git publishes a directory tree as a single commit and force-pushes it
// to remote branches.
//
// The package handles:
//   - Snapshot repositories built in a scratch directory
//   - Force pushes with token, basic or SSH authentication
//   - Classification of go-git failures into permanent and transient errors
package git
