// Package execute builds shell-safe command lines and runs skill commands,
// capturing output streams and reconciling newly produced files.
package execute
