package dto

// ReportFormat selects the rendered register export format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// RegisterExportRequest selects register export options.
type RegisterExportRequest struct {
	Format         ReportFormat `json:"format"`
	OrganizationID string       `json:"organization_id"`
}
