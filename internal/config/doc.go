// Package config handles the YAML settings shared by the yourls-diff
// commands: release source coordinates (GitHub owner, repository, API and
// download endpoints), HTTP timeouts, and the deployment target baked into
// generated scripts. Loading is optional; when no settings file exists the
// stock YOURLS defaults are used.
package config
