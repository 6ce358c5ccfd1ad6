package domain

// PriceKind selects which of the two independently maintained price tables
// an operation targets.
type PriceKind string

const (
	PriceDaily   PriceKind = "daily"
	PriceMonthly PriceKind = "monthly"
)

// Valid reports whether the kind names a known table.
func (k PriceKind) Valid() bool {
	return k == PriceDaily || k == PriceMonthly
}

// DocumentID is the id of the price document inside the "prices" collection.
func (k PriceKind) DocumentID() string {
	return string(k) + "_prices"
}

// PriceTable maps site type to price in the campground's currency.
// Updates are wholesale: a table replaces the stored one entirely, and only
// when it covers every catalog site type.
type PriceTable map[SiteType]float64
