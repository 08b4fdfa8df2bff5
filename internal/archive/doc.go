// Package archive unpacks release zip archives into working trees and builds
// the filtered patch package. Extraction normalizes the single top-level
// directory that GitHub tag archives wrap their contents in.
package archive
