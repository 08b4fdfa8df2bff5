// Package differ orchestrates the patch pipeline: resolve the release pair,
// download and extract both archives, compare the trees, and emit the patch
// package together with its manifests, description, and deployment helpers.
// All temporary state lives in a run-scoped directory removed on exit.
package differ
