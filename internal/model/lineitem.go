package model

// ItemType classifies a quote line as hardware or services.
type ItemType string

const (
	ItemHardware ItemType = "Hardware"
	ItemServices ItemType = "Services"
)

// LineItem is one row of a quote's line-item table. Pointer fields
// distinguish "absent from the document" from a true zero.
type LineItem struct {
	PartNumber        string   `json:"partNumber,omitempty"`
	Description       string   `json:"description,omitempty"`
	Quantity          *int     `json:"quantity"`
	UnitListPrice     *float64 `json:"unitListPrice"`
	UnitNetPrice      *float64 `json:"unitNetPrice"`
	ExtendedListPrice *float64 `json:"extendedListPrice"`
	ExtendedNetPrice  *float64 `json:"extendedNetPrice"`
	DiscountPercent   *float64 `json:"discountPercent,omitempty"`
	DiscountAmount    *float64 `json:"discountAmount,omitempty"`
	LineTotal         *float64 `json:"lineTotal,omitempty"`
	ItemType          ItemType `json:"itemType,omitempty"`
}

// Empty reports whether the row carries no identifying or pricing data.
// Such rows are artifacts of table padding and are dropped.
func (li LineItem) Empty() bool {
	return li.PartNumber == "" && li.Description == "" &&
		li.Quantity == nil &&
		li.UnitListPrice == nil && li.UnitNetPrice == nil &&
		li.ExtendedListPrice == nil && li.ExtendedNetPrice == nil
}
