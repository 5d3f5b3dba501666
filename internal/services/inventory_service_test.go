package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInventoryRepository is a mock implementation of repositories.InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) SearchByName(ctx context.Context, term string) ([]models.InventoryItem, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) FindLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) Insert(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishInventoryEvent(event models.InventoryEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func eventOfType(eventType models.InventoryEventType) interface{} {
	return mock.MatchedBy(func(e models.InventoryEvent) bool { return e.Type == eventType })
}

// steppingClock returns a strictly increasing time on every call.
func steppingClock() func() time.Time {
	current := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validInput() services.CreateItemInput {
	return services.CreateItemInput{
		ItemName:     "Hex Nut",
		Quantity:     5,
		ReorderLevel: 10,
		UnitPrice:    price("0.35"),
		SupplierName: "Acme Fasteners",
	}
}

func newMemoryService(opts ...services.Option) *services.InventoryService {
	opts = append([]services.Option{services.WithClock(steppingClock())}, opts...)
	return services.NewInventoryService(repositories.NewMemoryInventoryRepository(), zap.NewNop(), opts...)
}

func TestInventoryService_ListItems(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	expectedItems := []models.InventoryItem{
		{ID: 1, ItemName: "Anchor", Quantity: 3, ReorderLevel: 1},
		{ID: 2, ItemName: "Bracket", Quantity: 0, ReorderLevel: 4},
	}
	mockRepo.On("GetAll", ctx).Return(expectedItems, nil).Once()

	items, err := service.ListItems(ctx)

	assert.NoError(t, err)
	assert.Equal(t, expectedItems, items)
	mockRepo.AssertExpectations(t)

	// Storage failures propagate unmodified
	storageErr := errors.New("connection refused")
	mockRepo.On("GetAll", ctx).Return(nil, storageErr).Once()
	items, err = service.ListItems(ctx)
	assert.ErrorIs(t, err, storageErr)
	assert.Nil(t, items)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_GetItem(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	expectedItem := &models.InventoryItem{ID: 1, ItemName: "Anchor"}

	// Test successful retrieval
	mockRepo.On("GetByID", ctx, int64(1)).Return(expectedItem, nil).Once()
	item, err := service.GetItem(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedItem, item)

	// Test item not found
	mockRepo.On("GetByID", ctx, int64(99)).Return(nil, repositories.ErrItemNotFound).Once()
	item, err = service.GetItem(ctx, 99)
	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	assert.Nil(t, item)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_SearchItems(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	all := []models.InventoryItem{{ID: 1, ItemName: "Anchor"}, {ID: 2, ItemName: "Bolt"}}
	matches := []models.InventoryItem{{ID: 2, ItemName: "Bolt"}}

	mockRepo.On("SearchByName", ctx, "bol").Return(matches, nil).Once()
	items, err := service.SearchItems(ctx, "bol")
	assert.NoError(t, err)
	assert.Equal(t, matches, items)

	// Whitespace is matched as given
	mockRepo.On("SearchByName", ctx, " ").Return([]models.InventoryItem{}, nil).Once()
	items, err = service.SearchItems(ctx, " ")
	assert.NoError(t, err)
	assert.Empty(t, items)

	// Only the empty term lists everything
	mockRepo.On("GetAll", ctx).Return(all, nil).Once()
	items, err = service.SearchItems(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, all, items)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "SearchByName", 2)
}

func TestInventoryService_CreateItem(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewInventoryService(mockRepo, zap.NewNop(),
		services.WithPublisher(mockPublisher),
		services.WithClock(steppingClock()))
	ctx := context.Background()

	mockRepo.On("Insert", ctx, mock.AnythingOfType("*models.InventoryItem")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.InventoryItem).ID = 7 }).
		Return(nil).Once()
	mockPublisher.On("PublishInventoryEvent", eventOfType(models.EventItemCreated)).Return(nil).Once()
	mockPublisher.On("PublishInventoryEvent", eventOfType(models.EventItemLowStock)).Return(nil).Once()

	item, err := service.CreateItem(ctx, validInput())

	require.NoError(t, err)
	assert.Equal(t, int64(7), item.ID)
	assert.True(t, item.IsLowStock())
	assert.Equal(t, item.CreatedDate, item.UpdatedDate)
	assert.Equal(t, time.UTC, item.CreatedDate.Location())
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestInventoryService_CreateItem_StorageError(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewInventoryService(mockRepo, zap.NewNop(), services.WithPublisher(mockPublisher))
	ctx := context.Background()

	mockRepo.On("Insert", ctx, mock.Anything).Return(fmt.Errorf("database error")).Once()

	item, err := service.CreateItem(ctx, validInput())

	assert.Error(t, err)
	assert.Nil(t, item)
	assert.Contains(t, err.Error(), "database error")
	mockPublisher.AssertNotCalled(t, "PublishInventoryEvent", mock.Anything)
}

func TestInventoryService_CreateItem_PublishFailureDoesNotFail(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	service := newMemoryService(services.WithPublisher(mockPublisher))

	mockPublisher.On("PublishInventoryEvent", mock.Anything).Return(errors.New("broker down"))

	input := validInput()
	input.Quantity = 50
	item, err := service.CreateItem(context.Background(), input)

	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	mockPublisher.AssertNumberOfCalls(t, "PublishInventoryEvent", 1)
}

func TestInventoryService_CreateItem_ValidationReportsEveryField(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*services.CreateItemInput)
		fields []string
	}{
		{"name too short", func(in *services.CreateItemInput) { in.ItemName = "ab" }, []string{"itemName"}},
		{"name too long", func(in *services.CreateItemInput) { in.ItemName = strings.Repeat("x", 201) }, []string{"itemName"}},
		{"name missing", func(in *services.CreateItemInput) { in.ItemName = "" }, []string{"itemName"}},
		{"negative quantity", func(in *services.CreateItemInput) { in.Quantity = -1 }, []string{"quantity"}},
		{"negative reorder level", func(in *services.CreateItemInput) { in.ReorderLevel = -3 }, []string{"reorderLevel"}},
		{"name blank", func(in *services.CreateItemInput) { in.ItemName = "   " }, []string{"itemName"}},
		{"negative price", func(in *services.CreateItemInput) { in.UnitPrice = price("-0.01") }, []string{"unitPrice"}},
		{"price missing", func(in *services.CreateItemInput) { in.UnitPrice = nil }, []string{"unitPrice"}},
		{"supplier missing", func(in *services.CreateItemInput) { in.SupplierName = "" }, []string{"supplierName"}},
		{"supplier blank", func(in *services.CreateItemInput) { in.SupplierName = " \t " }, []string{"supplierName"}},
		{"price missing and name blank", func(in *services.CreateItemInput) {
			in.UnitPrice = nil
			in.ItemName = "    "
		}, []string{"unitPrice", "itemName"}},
		{"name and quantity together", func(in *services.CreateItemInput) {
			in.ItemName = "ab"
			in.Quantity = -1
		}, []string{"itemName", "quantity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			item, err := service.CreateItem(ctx, input)

			assert.Nil(t, item)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, field := range tt.fields {
				assert.True(t, verr.HasField(field), "expected %s in %v", field, verr.Fields)
			}
		})
	}
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestInventoryService_CreateItem_BoundaryValuesAreValid(t *testing.T) {
	service := newMemoryService()

	input := validInput()
	input.ItemName = "abc"
	input.Quantity = 0
	input.ReorderLevel = 0
	input.UnitPrice = price("0")
	_, err := service.CreateItem(context.Background(), input)
	assert.NoError(t, err)

	input.ItemName = strings.Repeat("é", 200)
	_, err = service.CreateItem(context.Background(), input)
	assert.NoError(t, err, "length counts characters, not bytes")
}

func TestInventoryService_CreateItem_RoundsPrice(t *testing.T) {
	service := newMemoryService()

	input := validInput()
	input.UnitPrice = price("1.005")
	item, err := service.CreateItem(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "1.01", item.UnitPrice.StringFixed(2))
	assert.True(t, decimal.RequireFromString("1.01").Equal(item.UnitPrice))
}

func TestInventoryService_UpdateItem_Partial(t *testing.T) {
	service := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateItem(ctx, validInput())
	require.NoError(t, err)

	updated, err := service.UpdateItem(ctx, created.ID, services.UpdateItemInput{
		Quantity: models.Some(12),
	})

	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)
	assert.Equal(t, created.ItemName, updated.ItemName)
	assert.Equal(t, created.ReorderLevel, updated.ReorderLevel)
	assert.True(t, created.UnitPrice.Equal(updated.UnitPrice))
	assert.Equal(t, created.SupplierName, updated.SupplierName)
	assert.Equal(t, created.CreatedDate, updated.CreatedDate)
	assert.False(t, updated.UpdatedDate.Before(created.UpdatedDate))
	assert.True(t, updated.UpdatedDate.After(created.UpdatedDate))
	assert.False(t, updated.IsLowStock())

	fetched, err := service.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *fetched)
}

func TestInventoryService_UpdateItem_NoFieldsStillAdvancesUpdatedDate(t *testing.T) {
	service := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateItem(ctx, validInput())
	require.NoError(t, err)

	updated, err := service.UpdateItem(ctx, created.ID, services.UpdateItemInput{})

	require.NoError(t, err)
	assert.True(t, updated.UpdatedDate.After(created.UpdatedDate))
	assert.Equal(t, created.Quantity, updated.Quantity)
}

func TestInventoryService_UpdateItem_EmptyTextLeavesFieldUnchanged(t *testing.T) {
	service := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateItem(ctx, validInput())
	require.NoError(t, err)

	updated, err := service.UpdateItem(ctx, created.ID, services.UpdateItemInput{
		ItemName:     models.Some(""),
		SupplierName: models.Some(""),
		Quantity:     models.Some(12),
	})

	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)
	assert.Equal(t, created.ItemName, updated.ItemName)
	assert.Equal(t, created.SupplierName, updated.SupplierName)
}

func TestInventoryService_UpdateItem_ValidatesSuppliedFields(t *testing.T) {
	service := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateItem(ctx, validInput())
	require.NoError(t, err)

	_, err = service.UpdateItem(ctx, created.ID, services.UpdateItemInput{
		ItemName:     models.Some("ab"),
		SupplierName: models.Some("   "),
		ReorderLevel: models.Some(-1),
	})

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("itemName"))
	assert.True(t, verr.HasField("supplierName"))
	assert.True(t, verr.HasField("reorderLevel"))
	assert.Len(t, verr.Fields, 3)

	fetched, err := service.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *fetched, "a rejected update changes nothing")
}

func TestInventoryService_UpdateItem_NotFound(t *testing.T) {
	service := newMemoryService()

	item, err := service.UpdateItem(context.Background(), 404, services.UpdateItemInput{Quantity: models.Some(1)})

	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	assert.Nil(t, item)
}

func TestInventoryService_UpdateItem_DeletedConcurrently(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	existing := &models.InventoryItem{ID: 3, ItemName: "Flange", SupplierName: "Acme", ReorderLevel: 1}
	mockRepo.On("GetByID", ctx, int64(3)).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.Anything).Return(repositories.ErrItemNotFound).Once()

	_, err := service.UpdateItem(ctx, 3, services.UpdateItemInput{Quantity: models.Some(9)})

	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_UpdateItem_PublishesLowStockTransition(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	service := newMemoryService(services.WithPublisher(mockPublisher))
	ctx := context.Background()

	mockPublisher.On("PublishInventoryEvent", eventOfType(models.EventItemCreated)).Return(nil).Once()
	mockPublisher.On("PublishInventoryEvent", eventOfType(models.EventItemUpdated)).Return(nil).Twice()
	mockPublisher.On("PublishInventoryEvent", eventOfType(models.EventItemLowStock)).Return(nil).Once()

	input := validInput()
	input.Quantity = 20
	created, err := service.CreateItem(ctx, input)
	require.NoError(t, err)

	// Crossing below the reorder level raises one alert
	_, err = service.UpdateItem(ctx, created.ID, services.UpdateItemInput{Quantity: models.Some(2)})
	require.NoError(t, err)

	// Staying low does not raise another
	_, err = service.UpdateItem(ctx, created.ID, services.UpdateItemInput{Quantity: models.Some(1)})
	require.NoError(t, err)

	mockPublisher.AssertExpectations(t)
}

func TestInventoryService_DeleteItem(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	service := newMemoryService(services.WithPublisher(mockPublisher))
	ctx := context.Background()

	mockPublisher.On("PublishInventoryEvent", mock.Anything).Return(nil)

	input := validInput()
	input.Quantity = 50
	created, err := service.CreateItem(ctx, input)
	require.NoError(t, err)

	deleted, err := service.DeleteItem(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	mockPublisher.AssertCalled(t, "PublishInventoryEvent", eventOfType(models.EventItemDeleted))

	// Deleting again is a soft miss
	deleted, err = service.DeleteItem(ctx, created.ID)
	assert.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = service.DeleteItem(ctx, 9999)
	assert.NoError(t, err)
	assert.False(t, deleted)
}

func TestInventoryService_DeleteItem_StorageError(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(&models.InventoryItem{ID: 5}, nil).Once()
	mockRepo.On("Delete", ctx, int64(5)).Return(false, errors.New("disk I/O error")).Once()

	deleted, err := service.DeleteItem(ctx, 5)

	assert.Error(t, err)
	assert.False(t, deleted)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_Ping(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	service := services.NewInventoryService(mockRepo, zap.NewNop())
	ctx := context.Background()

	mockRepo.On("Ping", ctx).Return(nil).Once()
	assert.NoError(t, service.Ping(ctx))

	mockRepo.On("Ping", ctx).Return(errors.New("down")).Once()
	assert.ErrorContains(t, service.Ping(ctx), "inventory store unavailable")
}
