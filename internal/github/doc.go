// Package github talks to a GitHub-style release host: it resolves the
// latest published tag through the REST API and downloads tag source
// archives. Both endpoints are configurable so tests (and forks hosted
// elsewhere) can point the client at another server.
package github
