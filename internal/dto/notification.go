package dto

// NotifyExpiryRequest identifies the submission an admin wants to flag.
type NotifyExpiryRequest struct {
	MOUID string `json:"mouId" binding:"required"`
}
