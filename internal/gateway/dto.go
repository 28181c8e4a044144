package gateway

type initiateRequest struct {
	TotalAmount           float64 `json:"totalAmount"`
	Description           string  `json:"description"`
	CallbackURL           string  `json:"callbackUrl"`
	ReturnURL             string  `json:"returnUrl"`
	CancellationURL       string  `json:"cancellationUrl"`
	MerchantAccountNumber string  `json:"merchantAccountNumber"`
	ClientReference       string  `json:"clientReference"`
}

type initiateResponse struct {
	ResponseCode string `json:"responseCode"`
	Status       string `json:"status"`
	Data         struct {
		CheckoutURL       string `json:"checkoutUrl"`
		CheckoutID        string `json:"checkoutId"`
		ClientReference   string `json:"clientReference"`
		CheckoutDirectURL string `json:"checkoutDirectUrl"`
	} `json:"data"`
}

type statusResponse struct {
	ResponseCode string `json:"responseCode"`
	Message      string `json:"message"`
	Data         struct {
		Status          string  `json:"status"`
		ClientReference string  `json:"clientReference"`
		Amount          float64 `json:"amount"`
	} `json:"data"`
}
