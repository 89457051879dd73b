package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/domain/entities"
)

const sampleFixture = `
accounts:
  - id: acct-owner
    role: pharmacy
  - id: acct-pending
    role: pharmacy
    pending_pharmacy:
      name: HealthPlus Yaba
      license: PCN-2291
      address: 12 Herbert Macaulay Way
      city: Yaba
      state: Lagos
      phone: "08031234567"
pharmacies:
  - id: ph-medplus
    owner_id: acct-owner
    name: MedPlus Ikeja
    license: PCN-1001
    address: 4 Allen Avenue
    city: Ikeja
    state: Lagos
    phone: "08020000000"
    latitude: 6.6018
    longitude: 3.3515
    offers:
      - id: off-para
        name: Paracetamol
        category: Analgesic
        strength: 500mg
        price: "500.00"
        quantity: 8
      - id: off-amox
        name: Amoxicillin
        price: "1250"
        quantity: 40
        low_stock_threshold: 5
        requires_prescription: true
        expiry_date: 2027-03-31
`

func TestParse(t *testing.T) {
	set, err := Parse(strings.NewReader(sampleFixture))
	require.NoError(t, err)

	require.Len(t, set.Accounts, 2)
	assert.Nil(t, set.Accounts[0].PendingPharmacy)
	require.NotNil(t, set.Accounts[1].PendingPharmacy)
	assert.True(t, set.Accounts[1].PendingPharmacy.Usable())
	assert.Equal(t, "PCN-2291", set.Accounts[1].PendingPharmacy.LicenseNumber)

	require.Len(t, set.Pharmacies, 1)
	pharmacy := set.Pharmacies[0]
	assert.True(t, pharmacy.IsActive)
	assert.True(t, pharmacy.HasCoordinates())

	require.Len(t, set.Offers, 2)
	para := set.Offers[0]
	assert.Equal(t, "ph-medplus", para.PharmacyID)
	assert.Equal(t, "500", para.UnitPrice.String())
	assert.Equal(t, entities.DefaultLowStockThreshold, para.LowStockThreshold)
	assert.Equal(t, entities.StockStatusLowStock, para.StockStatus())

	amox := set.Offers[1]
	assert.Equal(t, 5, amox.LowStockThreshold)
	assert.True(t, amox.RequiresPrescription)
	require.NotNil(t, amox.ExpiryDate)
	assert.Equal(t, 2027, amox.ExpiryDate.Year())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "accounts:\n  - id: a\n    nickname: x\n", "decode fixture"},
		{"missing account id", "accounts:\n  - role: patient\n", "accounts[0]"},
		{"missing owner", "pharmacies:\n  - id: ph-1\n", "pharmacies[0]"},
		{"bad price", "pharmacies:\n  - id: ph-1\n    owner_id: a\n    offers:\n      - id: o\n        name: X\n        price: cheap\n", "invalid price"},
		{"bad expiry", "pharmacies:\n  - id: ph-1\n    owner_id: a\n    offers:\n      - id: o\n        name: X\n        price: \"1\"\n        expiry_date: soon\n", "invalid expiry_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_BundledFixture(t *testing.T) {
	set, err := LoadFile("../../fixtures/lagos.yaml")
	require.NoError(t, err)

	owners := make(map[string]bool)
	for _, a := range set.Accounts {
		owners[a.ID] = true
	}
	for _, p := range set.Pharmacies {
		assert.True(t, owners[p.OwnerID], "pharmacy %s has no owner account", p.ID)
	}
	assert.NotEmpty(t, set.Offers)
}
