// Package document assembles the summary, narrative and chart images of a
// report into a single PDF using the fpdf core fonts.
package document
