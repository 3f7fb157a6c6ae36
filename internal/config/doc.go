// Package config loads server configuration from JSONC files ({env:VAR}
// interpolation supported) and SKILLSERVER_* environment variables.
package config
