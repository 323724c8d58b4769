package productconfig

// Config is the full product catalog configuration
type Config struct {
	Meta     Meta      `yaml:"meta" json:"meta"`
	Products []Product `yaml:"products" json:"products"`
}

// Meta identifies the catalog revision
type Meta struct {
	CatalogID string `yaml:"catalog_id" json:"catalog_id"`
	Version   string `yaml:"version" json:"version"`
	Timezone  string `yaml:"timezone" json:"timezone"`
}

// Product describes one tradable futures root and the continuous
// series built from it
type Product struct {
	Root        string  `yaml:"root" json:"root"`
	Description string  `yaml:"description" json:"description"`
	Dataset     string  `yaml:"dataset" json:"dataset"`
	PriceField  string  `yaml:"price_field" json:"price_field"`
	Targets     []int   `yaml:"targets" json:"targets"` // maturities in days
	Splice      Splice  `yaml:"splice" json:"splice"`
	Refresh     Refresh `yaml:"refresh" json:"refresh"`
}

// Splice holds the continuity defaults of a product
type Splice struct {
	AdjustMode  string   `yaml:"adjust_mode" json:"adjust_mode"`
	ExtraFields []string `yaml:"extra_fields" json:"extra_fields"`
}

// Refresh controls scheduled definition and bar pulls
type Refresh struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	LookbackDays int  `yaml:"lookback_days" json:"lookback_days"`
}

// ByRoot returns the product with the given root
func (c *Config) ByRoot(root string) (Product, bool) {
	for _, p := range c.Products {
		if p.Root == root {
			return p, true
		}
	}
	return Product{}, false
}
