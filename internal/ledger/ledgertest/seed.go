package ledgertest

import (
	"math/big"

	"github.com/harvestmkt/marketcore/internal/ledger"
)

// Demo seller addresses used by Seeded.
const (
	SellerGreenAcres = "0x5e11e7a8f3b2c4d6901aa3f0c8d72b5e4f6a8c01"
	SellerHillside   = "0x9b40cc12d7e8f6a3b5c2d190e4f7a6b8c3d5e702"
)

// price converts a dollars/cents pair into the 10^18-scaled encoding.
func price(dollars, cents int64) *big.Int {
	raw := new(big.Int).Mul(big.NewInt(dollars*100+cents), ledger.PriceScale)
	return raw.Div(raw, big.NewInt(100))
}

// Seeded returns a ledger pre-loaded with a small produce catalog, enough
// for a standalone marketd session to browse, cart, and order against.
func Seeded() *Ledger {
	l := New()

	for _, p := range []ledger.Product{
		{
			Name:          "Heirloom Tomatoes",
			Seller:        SellerGreenAcres,
			Category:      "vegetables",
			Price:         price(3, 99),
			StockQuantity: 120,
			Unit:          "lb",
			Description:   "Vine-ripened heirloom tomatoes, picked daily.",
			ImageURLs:     []string{"https://img.harvestmkt.dev/tomatoes-1.jpg", "https://img.harvestmkt.dev/tomatoes-2.jpg"},
			IsAvailable:   true,
			IsOrganic:     true,
			SoldCount:     342,
			Location:      "Petaluma, CA",
		},
		{
			Name:          "Grass-Fed Ground Beef",
			Seller:        SellerHillside,
			Category:      "meat",
			Price:         price(12, 99),
			StockQuantity: 45,
			Unit:          "lb",
			Description:   "100% grass-fed and finished, dry-aged 14 days.",
			ImageURLs:     []string{"https://img.harvestmkt.dev/beef-1.jpg"},
			IsAvailable:   true,
			SoldCount:     188,
			Location:      "Sonoma, CA",
		},
		{
			Name:          "Pasture-Raised Eggs",
			Seller:        SellerHillside,
			Category:      "dairy",
			Price:         price(6, 50),
			StockQuantity: 80,
			Unit:          "dozen",
			Description:   "Large brown eggs from pasture-raised hens.",
			ImageURLs:     []string{"https://img.harvestmkt.dev/eggs-1.jpg"},
			IsAvailable:   true,
			IsOrganic:     true,
			SoldCount:     510,
			Location:      "Sonoma, CA",
		},
		{
			Name:          "Raw Wildflower Honey",
			Seller:        SellerGreenAcres,
			Category:      "pantry",
			Price:         price(9, 25),
			StockQuantity: 30,
			Unit:          "jar",
			Description:   "Unfiltered honey from wildflower meadows.",
			ImageURLs:     []string{"https://img.harvestmkt.dev/honey-1.jpg"},
			IsAvailable:   true,
			IsOrganic:     true,
			SoldCount:     96,
			Location:      "Petaluma, CA",
		},
		{
			Name:          "Baby Spinach",
			Seller:        SellerGreenAcres,
			Category:      "vegetables",
			Price:         price(4, 25),
			StockQuantity: 0,
			Unit:          "bunch",
			Description:   "Tender baby spinach, cut to order.",
			ImageURLs:     []string{"https://img.harvestmkt.dev/spinach-1.jpg"},
			IsAvailable:   false,
			IsOrganic:     true,
			SoldCount:     220,
			Location:      "Petaluma, CA",
		},
	} {
		l.SeedProduct(p)
	}

	return l
}
