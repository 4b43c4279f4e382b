package handler

import (
	"context"
	"time"

	"ecostock/internal/model"
	"ecostock/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockInventoryService is a mock implementation of InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Run(ctx context.Context, req service.RunRequest) (*service.RunResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunResult), args.Error(1)
}

func (m *MockInventoryService) Add(ctx context.Context, record model.InventoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInventoryService) Delete(ctx context.Context, key model.IdentityKey) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryService) Validate(record model.InventoryRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

// MockSessionService is a mock implementation of SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create() uuid.UUID {
	args := m.Called()
	return args.Get(0).(uuid.UUID)
}

func (m *MockSessionService) Stage(id uuid.UUID, record model.InventoryRecord) (int, error) {
	args := m.Called(id, record)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) Entries(id uuid.UUID) ([]model.InventoryRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryRecord), args.Error(1)
}

func (m *MockSessionService) Discard(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

func expiry(day int) time.Time {
	return time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC)
}

func annotated(product string, category model.Category, stock int, sales, predicted float64, days int, level model.RiskLevel) model.AnnotatedRecord {
	return model.AnnotatedRecord{
		InventoryRecord: model.InventoryRecord{
			Product:     product,
			Category:    category,
			StockQty:    stock,
			WeeklySales: sales,
			ExpiryDate:  expiry(15 + days),
			StoreID:     model.StoreS01,
			Weather:     model.WeatherSunny,
		},
		DaysToExpire:    days,
		PredictedDemand: predicted,
		RiskLevel:       level,
	}
}

func testRunResult() *service.RunResult {
	milk := annotated("Milk", model.CategoryDairy, 100, 10, 10, 2, model.RiskHigh)
	bread := annotated("Bread", model.CategoryBakery, 40, 30, 30, 10, model.RiskMedium)
	bagel := annotated("Bagel", model.CategoryBakery, 20, 35, 35, 16, model.RiskLow)
	return &service.RunResult{
		Records:    []model.AnnotatedRecord{milk, bread, bagel},
		AtRisk:     []model.AnnotatedRecord{milk, bread},
		Categories: []model.Category{model.CategoryDairy, model.CategoryBakery},
		Total:      3,
	}
}
