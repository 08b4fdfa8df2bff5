// Package diff fingerprints extracted release trees and classifies every
// relative path as added, modified, or removed between two versions. The
// comparison is order-independent and content-based: only checksums decide
// whether a file changed.
package diff
