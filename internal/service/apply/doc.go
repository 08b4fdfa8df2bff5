// Package apply replaces the files of a local installation with the contents
// of a patch package, verifying every file against the checksums recorded in
// the patch description. A marker file in the target directory prevents two
// appliers from racing on the same installation; stale markers are recovered
// by terminating the stuck process.
package apply
