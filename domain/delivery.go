package domain

// DeliveryInfo is the committed delivery destination and its fee.
type DeliveryInfo struct {
	Address string  `json:"address"`
	Fee     float64 `json:"fee"`
}

func (d DeliveryInfo) IsResolved() bool {
	return d.Address != ""
}
