package domain

// CartItem is a single cart line as written by the cart store.
// LineTotal is only set when the line price was overridden (discounts, bundles).
type CartItem struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	UnitPrice   float64  `json:"unit_price"`
	Quantity    int      `json:"quantity"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}

// Total returns the explicit line total when present, unit price × quantity otherwise.
func (i CartItem) Total() float64 {
	if i.LineTotal != nil {
		return *i.LineTotal
	}
	return i.UnitPrice * float64(i.Quantity)
}

// CartSnapshot represents the cart composition observed at a point in time
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Subtotal sums the line totals of all items.
func (s CartSnapshot) Subtotal() float64 {
	var subtotal float64
	for _, item := range s.Items {
		subtotal += item.Total()
	}
	return subtotal
}
