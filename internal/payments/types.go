package payments

type ChargeRequest struct {
	// IdempotencyKey lets the provider collapse retried requests.
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	Description    string
	CustomerRef    string
}

type ChargeResult struct {
	TransactionID string
	Status        string
	Raw           map[string]any
}

type RefundRequest struct {
	IdempotencyKey string
	TransactionID  string
	AmountCents    int64
	Reason         string
}

type RefundResult struct {
	RefundID string
	Status   string
	Raw      map[string]any
}
