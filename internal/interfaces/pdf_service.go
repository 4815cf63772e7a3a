package interfaces

// PDFService renders report summaries for download
type PDFService interface {
	// ConvertMarkdownToPDF converts a markdown report summary to a PDF byte slice
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
