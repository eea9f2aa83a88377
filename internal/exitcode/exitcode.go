package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	LoadError       = 4
	AnalysisError   = 5
	ExportError     = 6
	PartialSuccess  = 7 // run finished but some catalog rows were rejected
)
