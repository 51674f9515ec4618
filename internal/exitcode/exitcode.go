// Package exitcode lists the process exit codes returned by the billingdash CLI.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2 // unreadable file, wrong type, missing columns
	DBConnError     = 3
	CopyError       = 4 // staging transactions failed
	TransformError  = 5 // aggregate / finalize failed
	ServeError      = 6
	ExportError     = 7
)
