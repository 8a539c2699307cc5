package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"example.com/cashflow-forecast/internal/forecast"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType   = "text/csv; charset=utf-8"
	seriesSheetName  = "Forecast"
	summarySheetName = "Summary"
	exportFilePrefix = "cashflow-forecast-"
	defaultSheetName = "Sheet1"
)

var seriesHeader = []string{
	"date",
	"day",
	"inflow_balance",
	"outflow_balance",
	"net_optimistic_balance",
	"net_realistic_balance",
}

// ExportCSV выгружает дневной ряд прогноза в CSV-файл.
func (h *ForecastHandler) ExportCSV(c echo.Context) error {
	result, err := h.forecastFromQuery(c)
	if err != nil || result == nil {
		return err
	}

	payload, err := buildForecastCSV(*result)
	if err != nil {
		return serverError(c)
	}

	setAttachment(c, exportFileName(*result, "csv"))
	return c.Blob(http.StatusOK, csvContentType, payload)
}

// ExportXLSX выгружает ряд и сводку прогноза в книгу Excel.
func (h *ForecastHandler) ExportXLSX(c echo.Context) error {
	result, err := h.forecastFromQuery(c)
	if err != nil || result == nil {
		return err
	}

	payload, err := buildForecastXLSX(*result)
	if err != nil {
		return serverError(c)
	}

	setAttachment(c, exportFileName(*result, "xlsx"))
	return c.Blob(http.StatusOK, xlsxContentType, payload)
}

func buildForecastCSV(result forecast.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(seriesHeader); err != nil {
		return nil, err
	}

	for day, point := range result.Series {
		record := []string{
			point.Date.String(),
			strconv.Itoa(day),
			point.InflowBalance.String(),
			point.OutflowBalance.String(),
			point.NetOptimisticBalance.String(),
			point.NetRealisticBalance.String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func buildForecastXLSX(result forecast.Result) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(defaultSheetName, seriesSheetName); err != nil {
		return nil, err
	}

	if err := setRow(file, seriesSheetName, 1, stringsToCells(seriesHeader)); err != nil {
		return nil, err
	}

	for day, point := range result.Series {
		row := []interface{}{
			point.Date.String(),
			day,
			point.InflowBalance.InexactFloat64(),
			point.OutflowBalance.InexactFloat64(),
			point.NetOptimisticBalance.InexactFloat64(),
			point.NetRealisticBalance.InexactFloat64(),
		}
		if err := setRow(file, seriesSheetName, day+2, row); err != nil {
			return nil, err
		}
	}

	if _, err := file.NewSheet(summarySheetName); err != nil {
		return nil, err
	}

	summary := toSummaryResponse(result)
	rows := [][]interface{}{
		{"horizon_days", summary.HorizonDays},
		{"current_balance", summary.CurrentBalance.InexactFloat64()},
		{"total_inflow", summary.TotalInflow.InexactFloat64()},
		{"total_outflow", summary.TotalOutflow.InexactFloat64()},
		{"net_optimistic_at_horizon", summary.NetOptimisticAtHorizon.InexactFloat64()},
		{"net_realistic_at_horizon", summary.NetRealisticAtHorizon.InexactFloat64()},
		{"gap", summary.Gap.InexactFloat64()},
		{"receivable_count", summary.ReceivableCount},
		{"payable_count", summary.PayableCount},
		{"at_risk", summary.AtRisk},
	}
	for i, row := range rows {
		if err := setRow(file, summarySheetName, i+1, row); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func setRow(file *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return file.SetSheetRow(sheet, cell, &values)
}

func stringsToCells(values []string) []interface{} {
	cells := make([]interface{}, 0, len(values))
	for _, value := range values {
		cells = append(cells, value)
	}
	return cells
}

func exportFileName(result forecast.Result, extension string) string {
	if len(result.Series) == 0 {
		return exportFilePrefix + "empty." + extension
	}
	return exportFilePrefix + result.Series[0].Date.String() + "." + extension
}

func setAttachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
}
