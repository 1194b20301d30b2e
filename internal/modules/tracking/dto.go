package tracking

type StartSessionRequest struct {
	VisitorID   string `json:"visitor_id" binding:"required"`
	Referrer    string `json:"referrer"`
	LandingPage string `json:"landing_page"`
}

type LinkSessionRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required,uuid"`
}

type EventRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
	EventType string `json:"event_type" binding:"required"`
	EventData string `json:"event_data"`
	Page      string `json:"page"`
	Element   string `json:"element"`
}
