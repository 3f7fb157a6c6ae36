// Package output post-processes files produced by skill executions: local
// pass-through, upload to a remote endpoint with content-hash deduplication,
// and formatting of execution results for tool responses.
package output
