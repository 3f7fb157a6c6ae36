// Package mcpserver exposes loaded skills over the Model Context Protocol:
// tools to list skills, inspect their command schemas, execute them, and
// refresh the skill set.
package mcpserver
