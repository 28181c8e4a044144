package domain

type AccountType string

const (
	AccountTypeAgent    AccountType = "agent"
	AccountTypeCustomer AccountType = "customer"
)

func (a AccountType) IsAgent() bool {
	return a == AccountTypeAgent
}

// Customer is the signed-in account, written to the session by the login flow.
type Customer struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	ContactNumber string      `json:"contact_number"`
	AccountType   AccountType `json:"account_type"`
}
