package query

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tair/field-service/internal/inventory/domain"
)

// Report sheet names
const (
	SheetStock     = "Stock"
	SheetDevices   = "Devices"
	SheetMovements = "Movements"
)

// movementRows bounds the movement history written to a report
const movementRows = 1000

var (
	stockHeader    = []string{"Product ID", "Batch ID", "Batch Number", "Received", "Location", "Available", "Reserved", "On Hand", "Unit Cost", "Value"}
	deviceHeader   = []string{"IMEI", "Product ID", "Batch ID", "Location", "Status", "Job ID"}
	movementHeader = []string{"Time", "Type", "Product ID", "Batch ID", "Location", "Quantity", "Reference", "Reason"}
)

// ExportStockReportQuery selects what goes into a stock report; zero values export everything
type ExportStockReportQuery struct {
	ProductID uint
	Location  string
}

// ExportStockReportHandler renders stock levels, devices and movements as an xlsx workbook
type ExportStockReportHandler struct {
	repo domain.InventoryRepository
}

// NewExportStockReportHandler creates a new export stock report handler
func NewExportStockReportHandler(repo domain.InventoryRepository) *ExportStockReportHandler {
	return &ExportStockReportHandler{repo: repo}
}

// Handle executes the export query and returns the workbook bytes
func (h *ExportStockReportHandler) Handle(ctx context.Context, query ExportStockReportQuery) ([]byte, error) {
	records, err := h.repo.ListRecords(ctx, domain.RecordFilter{ProductID: query.ProductID, Location: query.Location})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}
	devices, err := h.repo.ListDevices(ctx, domain.DeviceFilter{ProductID: query.ProductID, Location: query.Location})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	movements, err := h.repo.ListMovements(ctx, domain.MovementFilter{ProductID: query.ProductID, Limit: movementRows})
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	batches := make(map[uint]*domain.Batch)
	stockRows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		batch, ok := batches[rec.BatchID]
		if !ok {
			if batch, err = h.repo.FindBatch(ctx, rec.BatchID); err != nil {
				return nil, fmt.Errorf("failed to load batch: %w", err)
			}
			batches[rec.BatchID] = batch
		}
		value := batch.CostBasis.Mul(decimal.NewFromInt(int64(rec.OnHand())))
		stockRows = append(stockRows, []interface{}{
			rec.ProductID, rec.BatchID, batch.BatchNumber, batch.ReceivedAt.Format("2006-01-02"), rec.Location,
			rec.QuantityAvailable, rec.QuantityReserved, rec.OnHand(),
			batch.CostBasis.StringFixed(2), value.StringFixed(2),
		})
	}

	deviceRows := make([][]interface{}, 0, len(devices))
	for _, d := range devices {
		jobID := ""
		if d.JobID != nil {
			jobID = fmt.Sprint(*d.JobID)
		}
		deviceRows = append(deviceRows, []interface{}{d.IMEI, d.ProductID, d.BatchID, d.Location, string(d.Status), jobID})
	}

	movementData := make([][]interface{}, 0, len(movements))
	for _, m := range movements {
		if query.Location != "" && m.Location != query.Location {
			continue
		}
		movementData = append(movementData, []interface{}{
			m.CreatedAt.Format(time.RFC3339), string(m.Type), m.ProductID, m.BatchID, m.Location, m.Quantity, m.Reference, m.Reason,
		})
	}

	return renderWorkbook([]sheet{
		{name: SheetStock, header: stockHeader, rows: stockRows},
		{name: SheetDevices, header: deviceHeader, rows: deviceRows},
		{name: SheetMovements, header: movementHeader, rows: movementData},
	})
}

type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
}

func renderWorkbook(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}

		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(s.header), 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			row := row
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
