// Package content reads markdown posts with YAML front matter. It backs the
// bundled local posts and the legacy import, which turns files into post
// events.
package content
