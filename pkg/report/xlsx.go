package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/scope-labs/provider-intel/internal/analyzer"
)

const moneyFormat = "$#,##0"

// WriteXLSX renders the analysis as a four-sheet workbook: Executive Summary,
// Category Analysis, Service Gaps, and Raw Data.
func WriteXLSX(path string, a *analyzer.Analysis) error {
	f := xlsx.NewFile()

	if err := writeSummarySheet(f, a.Summary); err != nil {
		return err
	}
	if err := writeCategorySheet(f, a.Clusters); err != nil {
		return err
	}
	if err := writeGapSheet(f, a.Gaps); err != nil {
		return err
	}
	if err := writeRawSheet(f, a); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Info("report: wrote workbook",
		zap.String("path", path),
		zap.Int("providers", len(a.Providers)))
	return nil
}

func writeSummarySheet(f *xlsx.File, s analyzer.Summary) error {
	sheet, err := f.AddSheet("Executive Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addHeaderRow(sheet, "Metric", "Value")

	addMetric(sheet, "Total Providers Analyzed", float64(s.Total), "")
	addMetric(sheet, "Average Market Price", s.AvgPrice, moneyFormat)
	addMetric(sheet, "Median Market Price", s.MedianPrice, moneyFormat)
	addMetric(sheet, "Total Market Value (Est.)", s.TotalValue, moneyFormat)
	addMetric(sheet, "Highest Price", s.MaxPrice, moneyFormat)
	addMetric(sheet, "Average Completeness", s.AvgCompleteness, "0.00")
	addMetric(sheet, "Average Quality", s.AvgQuality, "0.00")
	addMetric(sheet, "High Quality (>0.8)", float64(s.HighQuality), "")
	addMetric(sheet, "Medium Quality (0.5-0.8)", float64(s.MediumQuality), "")
	addMetric(sheet, "Low Quality (<0.5)", float64(s.LowQuality), "")

	if len(s.TopFlags) > 0 {
		sheet.AddRow() // spacer
		addHeaderRow(sheet, "Quality Issue", "Providers")
		for _, fc := range s.TopFlags {
			row := sheet.AddRow()
			row.AddCell().Value = fc.Flag
			row.AddCell().SetInt(fc.Count)
		}
	}

	sheet.SetColWidth(0, 1, 28)
	return nil
}

func writeCategorySheet(f *xlsx.File, clusters []analyzer.ClusterStat) error {
	sheet, err := f.AddSheet("Category Analysis")
	if err != nil {
		return eris.Wrap(err, "report: add category sheet")
	}

	addHeaderRow(sheet, "Category", "Provider Count", "Avg Quality",
		"Avg Price ($)", "Min Price ($)", "Max Price ($)", "Total Value ($)")

	for _, c := range clusters {
		row := sheet.AddRow()
		row.AddCell().Value = c.Name
		row.AddCell().SetInt(c.Count)
		row.AddCell().SetFloatWithFormat(c.MeanQuality, "0.00")
		row.AddCell().SetFloatWithFormat(c.MeanPrice, moneyFormat)
		row.AddCell().SetFloatWithFormat(c.MinPrice, moneyFormat)
		row.AddCell().SetFloatWithFormat(c.MaxPrice, moneyFormat)
		row.AddCell().SetFloatWithFormat(c.TotalValue, moneyFormat)
	}

	sheet.SetColWidth(0, 0, 32)
	sheet.SetColWidth(1, 6, 15)
	return nil
}

func writeGapSheet(f *xlsx.File, gaps []analyzer.GapStat) error {
	sheet, err := f.AddSheet("Service Gaps")
	if err != nil {
		return eris.Wrap(err, "report: add gaps sheet")
	}

	addHeaderRow(sheet, "Target Keyword", "Providers", "Coverage", "Gap")

	for _, g := range gaps {
		row := sheet.AddRow()
		row.AddCell().Value = g.Keyword
		row.AddCell().SetInt(g.Providers)
		row.AddCell().Value = fmt.Sprintf("%.0f%%", g.Coverage*100)
		if g.Gap {
			row.AddCell().Value = "GAP"
		} else {
			row.AddCell().Value = ""
		}
	}

	sheet.SetColWidth(0, 3, 18)
	return nil
}

func writeRawSheet(f *xlsx.File, a *analyzer.Analysis) error {
	sheet, err := f.AddSheet("Raw Data")
	if err != nil {
		return eris.Wrap(err, "report: add raw sheet")
	}

	addHeaderRow(sheet,
		"Provider ID", "Name", "Country", "Location", "Tier", "Website",
		"Services", "Price", "Category", "Service Match",
		"Completeness", "Validity", "Quality", "Flags", "Source URL")

	for _, p := range a.Providers {
		r := ToRow(p)
		row := sheet.AddRow()
		row.AddCell().Value = r.ProviderID
		row.AddCell().Value = r.Name
		row.AddCell().Value = r.Country
		row.AddCell().Value = r.Location
		row.AddCell().Value = r.Tier
		row.AddCell().Value = r.Website
		row.AddCell().Value = r.Services
		row.AddCell().SetFloatWithFormat(r.Price, moneyFormat)
		row.AddCell().Value = r.Category
		row.AddCell().Value = r.ServiceMatch
		row.AddCell().SetFloatWithFormat(r.CompletenessScore, "0.00")
		row.AddCell().SetFloatWithFormat(r.ValidityScore, "0.00")
		row.AddCell().SetFloatWithFormat(r.QualityScore, "0.00")
		row.AddCell().Value = r.Flags
		row.AddCell().Value = r.SourceURL
	}

	sheet.SetColWidth(0, 14, 20)
	return nil
}

// addHeaderRow writes a bold, filled header row in the house style.
func addHeaderRow(sheet *xlsx.Sheet, titles ...string) {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.Font.Color = "FFFFFFFF"
	style.Fill.PatternType = "solid"
	style.Fill.FgColor = "FF1F4E78"
	style.ApplyFont = true
	style.ApplyFill = true

	row := sheet.AddRow()
	for _, title := range titles {
		cell := row.AddCell()
		cell.Value = title
		cell.SetStyle(style)
	}
}

func addMetric(sheet *xlsx.Sheet, name string, value float64, format string) {
	row := sheet.AddRow()
	row.AddCell().Value = name
	cell := row.AddCell()
	if format == "" {
		cell.SetInt(int(value))
		return
	}
	cell.SetFloatWithFormat(value, format)
}
