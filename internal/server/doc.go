// Package server provides the HTTP transport for the MCP skill server: a
// chi router with standard middleware mounting the streamable HTTP MCP
// handler, plus a health endpoint.
package server
