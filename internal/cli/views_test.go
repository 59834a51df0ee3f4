package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drp/internal/apiclient"
	"drp/internal/models"
)

func TestNewAppRegistersAllRecoverableEntities(t *testing.T) {
	app := NewApp("http://localhost:8090", &apiclient.MemTokenStore{})

	for _, name := range []string{"papers", "materials", "suppliers", "invoices", "dispatches"} {
		_, ok := app.views[name]
		assert.True(t, ok, "missing view %q", name)
	}
	require.NotNil(t, app.current)
	assert.Equal(t, "papers", app.current.Name())
}

func TestMaterialViewTableShape(t *testing.T) {
	api := apiclient.New("http://localhost:8090", &apiclient.MemTokenStore{})
	v := materialView(api)

	assert.Equal(t, "materials", v.Name())

	mv, ok := v.(*tableView[models.RawMaterialOrder])
	require.True(t, ok)
	assert.Equal(t, []string{"ID", "SUPPLIER", "STATUS", "WEIGHT", "REQUIRED BY"}, mv.headers)

	rec := models.RawMaterialOrder{}
	rec.ID = "RM-0001"
	rec.SupplierName = "Steel Co"
	rec.Status = "pending"
	rec.TotalWeight = 125.5
	rec.RequiredBy = "2026-09-01"
	assert.Equal(t, []string{"RM-0001", "Steel Co", "pending", "125.5", "2026-09-01"}, mv.row(rec))
	assert.Equal(t, "RM-0001 from Steel Co", mv.label(rec))
}
