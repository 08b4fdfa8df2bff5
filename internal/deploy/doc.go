// Package deploy emits the artifacts that surround the patch package: the
// changed-files manifest, the removed-files listing, the prose summary, the
// YAML patch description consumed by apply, and the deployment helper
// scripts (bash over rsync/ssh, WinSCP batch). All outputs are templated
// text with no runtime logic of their own.
package deploy
