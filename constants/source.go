package constants

// Model source tags written into the "Model Source" column.
const (
	SourceProse   = "prose"
	SourceGPT     = "gpt"
	SourceCustom  = "custom"
	SourceDefault = "default"
)

// Output formats understood by the exporter.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)
