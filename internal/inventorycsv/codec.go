// Package inventorycsv reads and writes inventory records as CSV text.
package inventorycsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"ecostock/internal/model"

	"github.com/shopspring/decimal"
)

// Header is the canonical column order of a stored inventory file.
var Header = []string{
	"Product",
	"Category",
	"StockQty",
	"WeeklySales",
	"ExpiryDate",
	"StoreID",
	"Weather",
	"HolidayFlag",
}

// AnnotatedHeader is the column order of an exported dashboard table.
var AnnotatedHeader = append(append([]string{}, Header...), "DaysToExpire", "PredictedDemand", "RiskLevel")

// dateLayouts are tried in order. Timestamps written by other tools are
// truncated to their date.
var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Decode parses a CSV document with a header row. Columns may come in any
// order and unknown columns are ignored, so an exported file can be read
// back. A document with only a header yields an empty slice.
func Decode(r io.Reader) ([]model.InventoryRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &model.DataError{Field: "header", Err: errors.New("missing header row")}
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	records := []model.InventoryRecord{}
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &model.DataError{Row: row, Field: "row", Err: err}
		}
		if blank(fields) {
			row--
			continue
		}

		rec, err := parseRecord(fields, index)
		if err != nil {
			var dataErr *model.DataError
			if errors.As(err, &dataErr) {
				dataErr.Row = row
			}
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Encode writes records with the canonical header.
func Encode(w io.Writer, records []model.InventoryRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(formatRecord(rec)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// EncodeAnnotated writes records together with their derived fields.
func EncodeAnnotated(w io.Writer, records []model.AnnotatedRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(AnnotatedHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := append(formatRecord(rec.InventoryRecord),
			strconv.Itoa(rec.DaysToExpire),
			decimal.NewFromFloat(rec.PredictedDemand).StringFixed(2),
			string(rec.RiskLevel),
		)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseDate parses an expiry date in any accepted layout and normalises it.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return model.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD")
}

// ParseHoliday accepts 0/1 and boolean spellings.
func ParseHoliday(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "1.0", "true", "yes":
		return true, nil
	case "0", "0.0", "false", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("expected 0 or 1")
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range Header {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &model.DataError{
			Field: "header",
			Value: strings.Join(header, ","),
			Err:   fmt.Errorf("missing columns %v", missing),
		}
	}

	return index, nil
}

func parseRecord(fields []string, index map[string]int) (model.InventoryRecord, error) {
	get := func(name string) string {
		i := index[name]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	var rec model.InventoryRecord

	rec.Product = get("Product")
	if rec.Product == "" {
		return rec, &model.DataError{Field: "Product", Err: errors.New("must not be empty")}
	}
	rec.Category = model.Category(get("Category"))
	rec.StoreID = model.StoreID(get("StoreID"))
	rec.Weather = model.Weather(get("Weather"))

	raw := get("StockQty")
	stock, err := parseQuantity(raw)
	if err != nil {
		return rec, &model.DataError{Field: "StockQty", Value: raw, Err: err}
	}
	rec.StockQty = stock

	raw = get("WeeklySales")
	sales, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return rec, &model.DataError{Field: "WeeklySales", Value: raw, Err: err}
	}
	if math.IsNaN(sales) || math.IsInf(sales, 0) {
		return rec, &model.DataError{Field: "WeeklySales", Value: raw, Err: errors.New("must be a finite number")}
	}
	if sales < 0 {
		return rec, &model.DataError{Field: "WeeklySales", Value: raw, Err: errors.New("must not be negative")}
	}
	rec.WeeklySales = sales

	raw = get("ExpiryDate")
	expiry, err := ParseDate(raw)
	if err != nil {
		return rec, &model.DataError{Field: "ExpiryDate", Value: raw, Err: err}
	}
	rec.ExpiryDate = expiry

	raw = get("HolidayFlag")
	holiday, err := ParseHoliday(raw)
	if err != nil {
		return rec, &model.DataError{Field: "HolidayFlag", Value: raw, Err: err}
	}
	rec.HolidayFlag = holiday

	return rec, nil
}

// parseQuantity accepts integral values, including "12.0" as written by
// spreadsheet tools, up to model.MaxStockQty.
func parseQuantity(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if n, atoiErr := strconv.Atoi(raw); atoiErr == nil {
		f, err = float64(n), nil
	}
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, errors.New("must be a finite number")
	case f < 0:
		return 0, errors.New("must not be negative")
	case f > model.MaxStockQty:
		return 0, fmt.Errorf("must not exceed %d", model.MaxStockQty)
	case f != math.Trunc(f):
		return 0, errors.New("must be a whole number")
	}
	return int(f), nil
}

func formatRecord(rec model.InventoryRecord) []string {
	holiday := "0"
	if rec.HolidayFlag {
		holiday = "1"
	}
	return []string{
		rec.Product,
		string(rec.Category),
		strconv.Itoa(rec.StockQty),
		strconv.FormatFloat(rec.WeeklySales, 'f', -1, 64),
		rec.ExpiryDate.Format(model.DateLayout),
		string(rec.StoreID),
		string(rec.Weather),
		holiday,
	}
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
