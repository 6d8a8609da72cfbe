package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edocame/bollinger-backtest/internal/backtest"
)

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	BaseStyle     int
	LossStyle     int
}

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteWalkForwardXLSX writes a walk-forward evaluation to an Excel
// workbook with one sheet per concern
func (r *DefaultExcelReporter) WriteWalkForwardXLSX(result *backtest.WalkForwardResult, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const periodsSheet = "Periods"
	const tradesSheet = "Trades"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), periodsSheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(summarySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writePeriodsSheet(fx, periodsSheet, result, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, result, styles); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, summarySheet, result, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the workbook styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F5496"},
			Pattern: 1,
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	// Loss style - red text for negative PnL
	styles.LossStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri", Color: "C00000"},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writePeriodsSheet(fx *excelize.File, sheet string, result *backtest.WalkForwardResult, styles ExcelStyles) error {
	headers := []string{"Period", "Train Start", "Train End", "Trade Start", "Trade End", "Window", "StdDev", "Train PnL", "Trades", "PnL (pips)", "Win Rate %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}

	for row, p := range result.Periods {
		values := []interface{}{
			p.Period,
			p.TrainStart.Format("2006-01-02 15:04"),
			p.TrainEnd.Format("2006-01-02 15:04"),
			p.TradeStart.Format("2006-01-02 15:04"),
			p.TradeEnd.Format("2006-01-02 15:04"),
			p.Window,
			p.StdDev,
			p.TrainPnL,
			p.Summary.TotalTrades,
			p.Summary.TotalPnL,
			p.Summary.WinRate,
		}
		r.writeRow(fx, sheet, row+2, values, styles.BaseStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, result *backtest.WalkForwardResult, styles ExcelStyles) error {
	headers := []string{"Period", "Direction", "Entry Time", "Exit Time", "PnL (pips)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}

	for row, trade := range result.CombinedTrades {
		values := []interface{}{
			trade.Period,
			DirectionLabel(trade.Direction),
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			trade.PnL,
		}
		style := styles.BaseStyle
		if trade.PnL < 0 {
			style = styles.LossStyle
		}
		r.writeRow(fx, sheet, row+2, values, style)
	}
	return nil
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, result *backtest.WalkForwardResult, styles ExcelStyles) error {
	rows := []struct {
		label string
		value interface{}
	}{
		{"Periods Attempted", result.TotalPeriods},
		{"Periods Completed", len(result.Periods)},
		{"Total Trades", result.TotalTrades},
		{"Total PnL (pips)", result.TotalPnL},
		{"Winning Trades", result.WinningTrades},
		{"Losing Trades", result.LosingTrades},
		{"Win Rate %", result.WinRate},
		{"Max Drawdown (pips)", result.MaxDrawdown},
		{"Avg PnL per Period", result.AvgPnLPerPeriod},
	}

	for i, row := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		fx.SetCellValue(sheet, labelCell, row.label)
		fx.SetCellStyle(sheet, labelCell, labelCell, styles.HeaderStyle)
		fx.SetCellValue(sheet, valueCell, row.value)
		fx.SetCellStyle(sheet, valueCell, valueCell, styles.BaseStyle)
	}
	fx.SetColWidth(sheet, "A", "A", 24)
	return nil
}

func (r *DefaultExcelReporter) writeRow(fx *excelize.File, sheet string, row int, values []interface{}, style int) {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		fx.SetCellValue(sheet, cell, value)
		fx.SetCellStyle(sheet, cell, cell, style)
	}
}

// WriteWalkForwardXLSX writes a walk-forward workbook with the default reporter
func WriteWalkForwardXLSX(result *backtest.WalkForwardResult, path string) error {
	return NewDefaultExcelReporter().WriteWalkForwardXLSX(result, path)
}
