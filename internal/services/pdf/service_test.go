package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name     string
		markdown string
		title    string
	}{
		{
			name:     "basic report headings",
			markdown: "# Economic Calendar Report: FDAX on 2024-01-15\n\nGenerated 2024-01-15 18:00 UTC\n\n- One\n- Two",
			title:    "FDAX 2024-01-15",
		},
		{
			name:     "empty markdown",
			markdown: "",
			title:    "Empty",
		},
		{
			name: "summary table with verdict",
			markdown: `# Report

## Summary

| Metric | Value |
|---|---|
| Total events | 12 |
| High impact | 3 |

**Impact 7/10, bearish**

> Watch the revision to the prior month.
`,
			title: "Summary",
		},
		{
			name:     "styling",
			markdown: "Normal **Bold** *Italic* ***BoldItalic***",
			title:    "Styling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ConvertMarkdownToPDF(tt.markdown, tt.title)

			assert.NoError(t, err)
			assert.NotEmpty(t, pdfBytes)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}

func TestConvertMarkdownToPDFEventSections(t *testing.T) {
	service := NewService(arbor.NewLogger())

	markdown := `# Economic Calendar Report: FDAX on 2024-01-15

## Events

### 13:30 Core Retail Sales (USD, High)

| Actual | Forecast | Previous |
|---|---|---|
| 0.2% | 0.4% | 0.1% |

**Impact 7/10, bearish**

A miss against forecast pressures risk assets.

Key factors:

- consumer spending
- rate path

> Watch the revision to the prior month.

## Postmortem notes

### 2024-01-16 09:12

Stopped out before the number.
`

	pdfBytes, err := service.ConvertMarkdownToPDF(markdown, "FDAX 2024-01-15")
	assert.NoError(t, err)
	assert.Greater(t, len(pdfBytes), 500)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
