package reviews

// ReportRenderer port (interface untuk report output)
type ReportRenderer interface {
	// Render produces a workbook from findings in the given order.
	Render(findings []*Finding) ([]byte, error)
}
