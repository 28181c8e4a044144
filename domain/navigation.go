package domain

// NavigationView is where the caller should take the user once an attempt ends.
type NavigationView string

const (
	NavigationNone          NavigationView = ""
	NavigationSuccess       NavigationView = "success"
	NavigationCancelled     NavigationView = "cancelled"
	NavigationOrderReceived NavigationView = "order_received"
)

type Navigation struct {
	View    NavigationView `json:"view,omitempty"`
	OrderID string         `json:"order_id,omitempty"`
}
