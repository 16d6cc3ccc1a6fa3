package request

import "github.com/google/uuid"

// StartSessionRequest finds or creates the session for a table visit
type StartSessionRequest struct {
	TableNumber  int         `json:"table_number" binding:"required,min=1"`
	CustomerName string      `json:"customer_name" binding:"max=120"`
	PhoneNumber  string      `json:"phone_number" binding:"required,max=20"`
	OrderIDs     []uuid.UUID `json:"order_ids"`
}

// AttachOrdersRequest records newly placed orders on a session
type AttachOrdersRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}
