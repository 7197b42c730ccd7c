package request

// DepositRequest moves one sale into the history ledger.
type DepositRequest struct {
	DepositDate string `json:"depositDate" binding:"required"`
}

// DepositAllRequest moves every open sale at once.
type DepositAllRequest struct {
	DepositDate string `json:"depositDate" binding:"required"`
}
