// Package workbook fills price summaries into a spreadsheet laid out with
// one sheet per ticker.
package workbook

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"StockSync/internal/calculator"
	"StockSync/internal/model"
	"StockSync/internal/period"
)

// PriceSource serves the recent series of a ticker, downloading it if needed.
type PriceSource interface {
	GetOrFetch(ctx context.Context, ticker string, p period.Spec) (model.Series, error)
}

// History reads stored bars without touching the network.
type History interface {
	ReadRange(ctx context.Context, ticker string, w period.Window) (model.Series, error)
}

// Options narrows which sheets and year rows are filled. Zero values mean all.
type Options struct {
	Stock string
	Year  int
}

// SheetReport describes what happened to one sheet.
type SheetReport struct {
	Sheet   string
	Skipped bool // no price data
	Years   []int
	Err     error
}

// Header cells and the moving averages written under them.
var (
	headers    = []string{"最新股價", "MA20", "MA50", "MA200"}
	maWindows  = []int{20, 50, 200}
	headerCols = []string{"B", "C", "D", "E"}
)

// Filler writes prices and quarter medians into workbooks.
type Filler struct {
	Prices  PriceSource
	History History
	log     zerolog.Logger
}

// NewFiller creates a Filler.
func NewFiller(prices PriceSource, history History, log zerolog.Logger) *Filler {
	return &Filler{Prices: prices, History: history, log: log.With().Str("component", "workbook").Logger()}
}

// Fill updates every matching sheet of the workbook at path and saves it in
// place. A sheet that fails is reported and the rest are still processed.
func (f *Filler) Fill(ctx context.Context, path string, opts Options) ([]SheetReport, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	want := strings.ToUpper(strings.TrimSpace(opts.Stock))
	var reports []SheetReport
	for _, sheet := range wb.GetSheetList() {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		ticker := strings.ToUpper(sheet)
		if want != "" && ticker != want {
			continue
		}
		r := f.fillSheet(ctx, wb, sheet, ticker, opts.Year)
		if r.Err != nil {
			f.log.Error().Err(r.Err).Str("sheet", sheet).Msg("fill sheet")
		}
		reports = append(reports, r)
	}

	if err := wb.Save(); err != nil {
		return reports, fmt.Errorf("save workbook: %w", err)
	}
	return reports, nil
}

func (f *Filler) fillSheet(ctx context.Context, wb *excelize.File, sheet, ticker string, onlyYear int) SheetReport {
	r := SheetReport{Sheet: sheet}

	series, err := f.Prices.GetOrFetch(ctx, ticker, period.Years(1))
	if err != nil {
		r.Err = err
		return r
	}
	last, ok := series.Last()
	if !ok {
		r.Skipped = true
		return r
	}

	for i, h := range headers {
		if err := wb.SetCellValue(sheet, headerCols[i]+"1", h); err != nil {
			r.Err = err
			return r
		}
	}
	if err := wb.SetCellValue(sheet, "B2", calculator.Round2(last.Close)); err != nil {
		r.Err = err
		return r
	}
	mas := calculator.MovingAverages(series, maWindows...)
	for i, n := range maWindows {
		v, ok := mas[n]
		if !ok {
			continue
		}
		if err := wb.SetCellValue(sheet, headerCols[i+1]+"2", calculator.Round2(v)); err != nil {
			r.Err = err
			return r
		}
	}

	years, err := yearRows(wb, sheet)
	if err != nil {
		r.Err = err
		return r
	}
	for _, yr := range years {
		if onlyYear != 0 && yr.year != onlyYear {
			continue
		}
		if err := f.fillYear(ctx, wb, sheet, ticker, yr); err != nil {
			r.Err = err
			return r
		}
		r.Years = append(r.Years, yr.year)
	}
	return r
}

// fillYear writes the year average on the marker row and Q4..Q1 medians on
// the four rows below it. Missing values leave the cell as it was.
func (f *Filler) fillYear(ctx context.Context, wb *excelize.File, sheet, ticker string, yr yearRow) error {
	w := period.Year(yr.year).Resolve(time.Now())
	bars, err := f.History.ReadRange(ctx, ticker, w)
	if err != nil {
		return err
	}
	rep := calculator.QuarterMedians(bars, yr.year)

	cells := []*float64{rep.YearAvg, rep.Quarter(4), rep.Quarter(3), rep.Quarter(2), rep.Quarter(1)}
	for offset, v := range cells {
		if v == nil {
			continue
		}
		cell := fmt.Sprintf("F%d", yr.row+offset)
		if err := wb.SetCellValue(sheet, cell, *v); err != nil {
			return err
		}
	}
	return nil
}

type yearRow struct {
	row  int
	year int
}

// yearRows finds rows from 3 down whose column B is "Y" and whose column A
// holds a whole number.
func yearRows(wb *excelize.File, sheet string) ([]yearRow, error) {
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	var out []yearRow
	for i := 2; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 || strings.TrimSpace(row[1]) != "Y" {
			continue
		}
		n := i + 1
		cell := fmt.Sprintf("A%d", n)
		typ, err := wb.GetCellType(sheet, cell)
		if err != nil {
			return nil, err
		}
		if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		out = append(out, yearRow{row: n, year: year})
	}
	return out, nil
}
