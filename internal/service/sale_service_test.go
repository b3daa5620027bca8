package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc       service.SaleService
	items     *stubItemRepo
	sales     *stubSaleRepo
	movements *stubMovementRepo
	ledger    *spyLedger
	actor     service.Actor
	itemA     uuid.UUID
	itemB     uuid.UUID
	org       uuid.UUID
}

func newSaleFixture() *saleFixture {
	org := uuid.New()
	user := model.Profile{ID: uuid.New(), Email: "staff@acme.test", Role: model.RoleStaff, OrganizationID: &org, Active: true}
	a := model.Item{ID: uuid.New(), OrganizationID: &org, Name: "Flour", Unit: "kg", Quantity: dec("100")}
	b := model.Item{ID: uuid.New(), OrganizationID: &org, Name: "Sugar", Unit: "kg", Quantity: dec("10")}

	f := &saleFixture{
		items:     newStubItemRepo(a, b),
		sales:     newStubSaleRepo(),
		movements: &stubMovementRepo{},
		ledger:    &spyLedger{},
		actor:     service.Actor{UserID: user.ID, Role: user.Role, OrganizationID: &org},
		itemA:     a.ID,
		itemB:     b.ID,
		org:       org,
	}
	f.svc = service.NewSaleService(f.sales, f.items, newStubProfileRepo(user), f.movements, f.ledger)
	return f
}

func (f *saleFixture) sell(t *testing.T, item uuid.UUID, qty string) *dto.CreateSaleResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.actor, dto.CreateSaleRequest{
		ItemID:   item.String(),
		Quantity: dec(qty),
		Date:     "2024-03-01",
	})
	require.NoError(t, err)
	return resp
}

func TestCreateSale_DecrementsStock(t *testing.T) {
	f := newSaleFixture()

	resp := f.sell(t, f.itemA, "30")

	assert.True(t, resp.Success)
	assert.Equal(t, "70", resp.UpdatedQuantity.String())
	assert.Equal(t, "70", f.items.qty(f.itemA).String())
	assert.Equal(t, f.org.String(), *resp.Sale.OrganizationID)
	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, model.MovementSale, m.Kind)
	assert.Equal(t, "-30", m.Quantity.String())
	assert.Equal(t, "100", m.QuantityBefore.String())
	assert.Equal(t, "70", m.QuantityAfter.String())
	assert.Equal(t, 1, f.ledger.calls)
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	f := newSaleFixture()

	_, err := f.svc.Create(context.Background(), f.actor, dto.CreateSaleRequest{
		ItemID: f.itemB.String(), Quantity: dec("11"), Date: "2024-03-01",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInsufficientStock))
	assert.Equal(t, http.StatusBadRequest, service.HTTPStatus(err))
	assert.Equal(t, "Cannot record sales of 11. Available stock: 10", err.Error())
	assert.Equal(t, "10", f.items.qty(f.itemB).String(), "item must be unchanged")
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.movements.movements)
}

func TestCreateSale_Validation(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()

	cases := []dto.CreateSaleRequest{
		{Quantity: dec("1"), Date: "2024-03-01"},
		{ItemID: f.itemA.String(), Date: "2024-03-01"},
		{ItemID: f.itemA.String(), Quantity: dec("-2"), Date: "2024-03-01"},
		{ItemID: f.itemA.String(), Quantity: dec("1")},
	}
	for _, req := range cases {
		_, err := f.svc.Create(ctx, f.actor, req)
		require.Error(t, err)
		assert.Equal(t, "Missing required fields", err.Error())
		assert.Equal(t, http.StatusBadRequest, service.HTTPStatus(err))
	}

	_, err := f.svc.Create(ctx, f.actor, dto.CreateSaleRequest{ItemID: uuid.NewString(), Quantity: dec("1"), Date: "2024-03-01"})
	assert.Equal(t, http.StatusNotFound, service.HTTPStatus(err))
	assert.Equal(t, "Item not found", err.Error())

	_, err = f.svc.Create(ctx, f.actor, dto.CreateSaleRequest{ItemID: f.itemA.String(), Quantity: dec("1"), Date: "01/03/2024"})
	assert.Equal(t, http.StatusBadRequest, service.HTTPStatus(err))
}

func TestCreateSale_OtherTenantItemIsHidden(t *testing.T) {
	f := newSaleFixture()
	other := uuid.New()
	foreign := model.Item{ID: uuid.New(), OrganizationID: &other, Name: "Salt", Quantity: dec("5")}
	f.items.items[foreign.ID] = &foreign

	_, err := f.svc.Create(context.Background(), f.actor, dto.CreateSaleRequest{
		ItemID: foreign.ID.String(), Quantity: dec("1"), Date: "2024-03-01",
	})
	assert.Equal(t, http.StatusNotFound, service.HTTPStatus(err))
	assert.Equal(t, "5", f.items.qty(foreign.ID).String())
}

func TestUpdateSale_NetDelta(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemA, "30") // 100 -> 70

	resp, err := f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID:      created.Sale.ID,
		ItemID:      f.itemA.String(),
		Quantity:    dec("50"),
		OldQuantity: ptr(dec("30")),
		Date:        "2024-03-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "50", resp.UpdatedQuantity.String()) // 70 - (50 - 30)
	assert.Equal(t, "50", f.items.qty(f.itemA).String())
	stored := f.sales.sales[uuid.MustParse(created.Sale.ID)]
	assert.Equal(t, "50", stored.Quantity.String())
	assert.Len(t, f.movements.movements, 2)
}

func TestUpdateSale_NegativeStockRejected(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemB, "4") // 10 -> 6

	_, err := f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID:      created.Sale.ID,
		ItemID:      f.itemB.String(),
		Quantity:    dec("11"),
		OldQuantity: ptr(dec("4")),
		Date:        "2024-03-01",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNegativeStock))
	assert.Equal(t, "Cannot update. Available stock after adjustment: 10", err.Error())
	assert.Equal(t, "6", f.items.qty(f.itemB).String())
	assert.Equal(t, "4", f.sales.sales[uuid.MustParse(created.Sale.ID)].Quantity.String())
}

func TestUpdateSale_StaleOldQuantityConflicts(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemA, "30")

	_, err := f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID:      created.Sale.ID,
		ItemID:      f.itemA.String(),
		Quantity:    dec("10"),
		OldQuantity: ptr(dec("25")),
		Date:        "2024-03-01",
	})
	assert.Equal(t, http.StatusConflict, service.HTTPStatus(err))
	assert.Equal(t, "70", f.items.qty(f.itemA).String())
}

func TestUpdateSale_ItemChangeMovesStock(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemA, "30") // A: 100 -> 70

	resp, err := f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID:      created.Sale.ID,
		ItemID:      f.itemB.String(),
		Quantity:    dec("4"),
		OldQuantity: ptr(dec("30")),
		Date:        "2024-03-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "100", f.items.qty(f.itemA).String())
	assert.Equal(t, "6", f.items.qty(f.itemB).String())
	assert.Equal(t, "6", resp.UpdatedQuantity.String())
	assert.Equal(t, f.itemB, f.sales.sales[uuid.MustParse(created.Sale.ID)].ItemID)
}

func TestUpdateSale_MissingFields(t *testing.T) {
	f := newSaleFixture()
	_, err := f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID: uuid.NewString(), ItemID: f.itemA.String(), Quantity: dec("1"), Date: "2024-03-01",
	})
	assert.Equal(t, "Missing required fields", err.Error())

	_, err = f.svc.Update(context.Background(), f.actor, dto.UpdateSaleRequest{
		SaleID: uuid.NewString(), ItemID: f.itemA.String(), Quantity: dec("1"),
		OldQuantity: ptr(dec("1")), Date: "2024-03-01",
	})
	assert.Equal(t, http.StatusNotFound, service.HTTPStatus(err))
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemA, "30")

	resp, err := f.svc.Delete(context.Background(), f.actor, dto.DeleteSaleRequest{
		SaleID: created.Sale.ID, ItemID: f.itemA.String(), Quantity: "30",
	})

	require.NoError(t, err)
	assert.Equal(t, "100", resp.UpdatedQuantity.String())
	assert.Equal(t, "100", f.items.qty(f.itemA).String())
	assert.Empty(t, f.sales.sales)
	last := f.movements.movements[len(f.movements.movements)-1]
	assert.Equal(t, model.MovementSaleDelete, last.Kind)
	assert.Equal(t, "30", last.Quantity.String())
}

func TestDeleteSale_Errors(t *testing.T) {
	f := newSaleFixture()
	created := f.sell(t, f.itemA, "30")
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, f.actor, dto.DeleteSaleRequest{SaleID: created.Sale.ID})
	assert.Equal(t, "Missing required parameters", err.Error())

	_, err = f.svc.Delete(ctx, f.actor, dto.DeleteSaleRequest{SaleID: created.Sale.ID, ItemID: uuid.NewString(), Quantity: "30"})
	assert.Equal(t, "Item not found", err.Error())

	_, err = f.svc.Delete(ctx, f.actor, dto.DeleteSaleRequest{SaleID: uuid.NewString(), ItemID: f.itemA.String(), Quantity: "30"})
	assert.Equal(t, "Sale not found", err.Error())

	_, err = f.svc.Delete(ctx, f.actor, dto.DeleteSaleRequest{SaleID: created.Sale.ID, ItemID: f.itemA.String(), Quantity: "29"})
	assert.Equal(t, http.StatusConflict, service.HTTPStatus(err))
	assert.Equal(t, "70", f.items.qty(f.itemA).String())
}

func TestListSales_PinsTenantOrganization(t *testing.T) {
	f := newSaleFixture()
	f.sell(t, f.itemA, "1")
	other := uuid.New()
	f.sales.sales[uuid.New()] = &model.Sale{ID: uuid.New(), ItemID: f.itemA, Quantity: dec("2"), Date: "2024-03-01", OrganizationID: &other}

	resp, err := f.svc.List(context.Background(), f.actor, dto.SaleListQuery{OrganizationID: other.String()})

	require.NoError(t, err)
	require.Len(t, resp.Sales, 1)
	assert.Equal(t, f.org.String(), *resp.Sales[0].OrganizationID)

	_, err = f.svc.List(context.Background(), f.actor, dto.SaleListQuery{BranchID: "branch-7"})
	assert.Equal(t, http.StatusBadRequest, service.HTTPStatus(err))
}
