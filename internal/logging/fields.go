// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field names for structured log entries.
const (
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldFiles      = "files"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Parse fields.
	FieldFile     = "file"
	FieldTriple   = "triple"
	FieldCPU      = "cpu"
	FieldFeatures = "features"
	FieldTarget   = "target"
	FieldStage    = "stage"
	FieldOffset   = "offset"
	FieldTokens   = "tokens"
	FieldMacros   = "macros"
	FieldIncludes = "includes"

	// Documentation fields.
	FieldMnemonic = "mnemonic"
	FieldArgc     = "argc"
	FieldDocsPath = "docs_path"
	FieldNode     = "node"

	// Run statistics.
	FieldJobs             = "jobs"
	FieldFilesDiscovered  = "files_discovered"
	FieldFilesProcessed   = "files_processed"
	FieldFilesWithIssues  = "files_with_issues"
	FieldDiagnosticsTotal = "diagnostics_total"
	FieldInstructions     = "instructions"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
