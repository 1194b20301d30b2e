package payment

type CheckoutRequest struct {
	Date      string `json:"date" binding:"required"`
	StartHour int    `json:"start_hour" binding:"min=0,max=23"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	BookingID string `json:"booking_id"`
}

type TopupRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type TopupResponse struct {
	URL string `json:"url"`
}

// Event is the webhook payload shape from the checkout collaborator.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID         string            `json:"id"`
			PaymentRef string            `json:"payment_ref"`
			Metadata   map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)
