// Package report renders dashboard charts and assembles the downloadable PDF
// report.
//
// Charts are drawn with gonum/plot into PNG images. The Assembler lays the
// report out as a plan of pages first (title and key metrics, one page per
// dimension with the latest-month chart above the overall chart, then the
// monthly trend) and draws the plan with gopdf. A failing chart aborts the
// whole report; an empty chart is replaced by a "No data available" line.
package report
