package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laundromat/apperror"
	"laundromat/models"
	"laundromat/store"
	"laundromat/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Archiver keeps a copy of generated workbooks.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type SalesService struct {
	sales   store.SalesStore
	archive Archiver
	now     func() time.Time
}

func NewSalesService(sales store.SalesStore) *SalesService {
	return &SalesService{sales: sales, now: time.Now}
}

// WithArchive makes Export upload every workbook it renders.
func (s *SalesService) WithArchive(a Archiver) *SalesService {
	s.archive = a
	return s
}

func (s *SalesService) List(ctx context.Context, startDate, endDate string) ([]models.SaleEntry, error) {
	from, to, err := optionalRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.List(ctx, from, to)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching sales")
	}
	return sales, nil
}

func (s *SalesService) Summary(ctx context.Context, startDate, endDate string) (models.SalesSummary, error) {
	from, to, err := requiredRange(startDate, endDate)
	if err != nil {
		return models.SalesSummary{}, err
	}
	sum, err := s.sales.Summary(ctx, from, to)
	if err != nil {
		return models.SalesSummary{}, apperror.Internal(err, "Error calculating sales summary")
	}
	return sum, nil
}

func (s *SalesService) Get(ctx context.Context, id string) (*models.SaleEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("Sale not found")
	}
	sale, err := s.sales.FindByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Sale not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching sale")
	}
	return sale, nil
}

func (s *SalesService) Create(ctx context.Context, sale models.SaleEntry) (*models.SaleEntry, error) {
	if sale.Date.IsZero() {
		return nil, apperror.RequiredField("date")
	}
	sale.ID = primitive.NilObjectID
	sale.CreatedAt = s.now()
	if err := s.sales.Insert(ctx, &sale); err != nil {
		return nil, apperror.Internal(err, "Error saving sale")
	}
	return &sale, nil
}

func (s *SalesService) Update(ctx context.Context, id string, sale models.SaleEntry) (*models.SaleEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("Sale not found")
	}
	if sale.Date.IsZero() {
		return nil, apperror.RequiredField("date")
	}
	sale.UpdatedAt = s.now()
	err = s.sales.Update(ctx, oid, &sale)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Sale not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error updating sale")
	}
	return s.Get(ctx, id)
}

func (s *SalesService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("Sale not found")
	}
	err = s.sales.Delete(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Sale not found")
	}
	if err != nil {
		return apperror.Internal(err, "Error deleting sale")
	}
	return nil
}

// BulkCreate stores what it can of entries and reports the rest per index.
func (s *SalesService) BulkCreate(ctx context.Context, entries []models.SaleEntry) (models.BulkSalesResult, error) {
	if len(entries) == 0 {
		return models.BulkSalesResult{}, apperror.BadRequest("entries must be a non-empty array")
	}

	result := models.BulkSalesResult{TotalAttempted: len(entries)}
	now := s.now()
	var batch []models.SaleEntry
	var origin []int
	for i, e := range entries {
		if e.Date.IsZero() {
			idx := i
			result.Errors = append(result.Errors, models.ItemError{Type: models.ErrTypeSales, Index: &idx, Error: "date is required"})
			continue
		}
		e.ID = primitive.NilObjectID
		e.CreatedAt = now
		batch = append(batch, e)
		origin = append(origin, i)
	}

	res, err := s.sales.InsertMany(ctx, batch)
	if err != nil {
		return models.BulkSalesResult{}, apperror.Internal(err, "Error saving sales")
	}
	result.NInserted = res.Inserted
	for _, f := range res.Failures {
		idx := origin[f.Index]
		result.Errors = append(result.Errors, models.ItemError{Type: models.ErrTypeSales, Index: &idx, Error: f.Err})
	}

	if result.NInserted == result.TotalAttempted {
		result.Message = fmt.Sprintf("All %d entries saved", result.TotalAttempted)
	} else {
		result.Message = fmt.Sprintf("Saved %d out of %d entries", result.NInserted, result.TotalAttempted)
	}
	return result, nil
}

var exportHeader = []interface{}{"Date", "Coin", "Hopper", "Soap", "Vending", "Drop-off 1", "Drop-off code", "Drop-off 2", "Recorded by"}

// Export renders the sales of the range as an xlsx workbook with a totals row.
func (s *SalesService) Export(ctx context.Context, startDate, endDate string) ([]byte, error) {
	from, to, err := requiredRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.List(ctx, &from, &to)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching sales")
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, apperror.Internal(err, "Error building workbook")
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, apperror.Internal(err, "Error building workbook")
	}

	var totals models.SalesSummary
	for i, sale := range sales {
		row := []interface{}{
			sale.Date.Format(models.DateLayout),
			sale.Coin.Float(), sale.Hopper.Float(), sale.Soap.Float(), sale.Vending.Float(),
			sale.DropOffAmount1.Float(), sale.DropOffCode, sale.DropOffAmount2.Float(),
			sale.RecordedBy,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperror.Internal(err, "Error building workbook")
		}
		totals.Coin += sale.Coin.Float()
		totals.Hopper += sale.Hopper.Float()
		totals.Soap += sale.Soap.Float()
		totals.Vending += sale.Vending.Float()
		totals.DropOffAmount1 += sale.DropOffAmount1.Float()
		totals.DropOffAmount2 += sale.DropOffAmount2.Float()
	}

	totalRow := []interface{}{
		"Total",
		utils.Round2(totals.Coin), utils.Round2(totals.Hopper), utils.Round2(totals.Soap), utils.Round2(totals.Vending),
		utils.Round2(totals.DropOffAmount1), "", utils.Round2(totals.DropOffAmount2),
		utils.Round2(totals.Total()),
	}
	cell, _ := excelize.CoordinatesToCellName(1, len(sales)+2)
	if err := f.SetSheetRow(sheet, cell, &totalRow); err != nil {
		return nil, apperror.Internal(err, "Error building workbook")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.Internal(err, "Error writing workbook")
	}
	data := buf.Bytes()
	s.archiveExport(ctx, startDate, endDate, data)
	return data, nil
}

// archiveExport is best effort; the caller gets the workbook either way.
func (s *SalesService) archiveExport(ctx context.Context, start, end string, data []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("exports/sales_%s_%s_%d.xlsx", start, end, s.now().Unix())
	url, err := s.archive.Put(ctx, key, data, xlsxContentType)
	if err != nil {
		zap.L().Warn("sales export not archived", zap.String("key", key), zap.Error(err))
		return
	}
	zap.L().Info("sales export archived", zap.String("url", url))
}

// requiredRange parses a startDate/endDate pair that must both be present.
func requiredRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, apperror.BadRequest("startDate and endDate are required")
	}
	from, to, err := optionalRange(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return *from, *to, nil
}
