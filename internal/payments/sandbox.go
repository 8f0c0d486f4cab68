package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is a deterministic in-process gateway. Outcomes depend only on its
// configuration and the request, and transaction ids are derived from the
// idempotency key, so a repeated request returns the same result.
type Sandbox struct {
	// DeclineAboveCents declines charges larger than this when positive.
	DeclineAboveCents int64

	mu          sync.Mutex
	unavailable bool
	declineRefs map[string]bool
	charges     map[string]ChargeResult
	refunds     map[string]RefundResult
	refunded    map[string]int64
	captured    map[string]int64
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		declineRefs: make(map[string]bool),
		charges:     make(map[string]ChargeResult),
		refunds:     make(map[string]RefundResult),
		refunded:    make(map[string]int64),
		captured:    make(map[string]int64),
	}
}

func (s *Sandbox) Name() string { return "sandbox" }

// SetUnavailable makes every call fail with ErrUnavailable until reset.
func (s *Sandbox) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// DeclineCustomer makes charges for the given customer reference fail.
func (s *Sandbox) DeclineCustomer(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declineRefs[ref] = true
}

func (s *Sandbox) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return ChargeResult{}, ErrUnavailable
	}
	if res, ok := s.charges[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return res, nil
	}
	if req.AmountCents < 0 {
		return ChargeResult{}, fmt.Errorf("negative amount: %w", ErrDeclined)
	}
	if s.declineRefs[req.CustomerRef] || (s.DeclineAboveCents > 0 && req.AmountCents > s.DeclineAboveCents) {
		return ChargeResult{}, ErrDeclined
	}

	res := ChargeResult{
		TransactionID: deriveID("charge", req.IdempotencyKey),
		Status:        "succeeded",
		Raw:           map[string]any{"amount": req.AmountCents, "sandbox": true},
	}
	s.charges[req.IdempotencyKey] = res
	s.captured[res.TransactionID] = req.AmountCents
	return res, nil
}

func (s *Sandbox) Refund(_ context.Context, req RefundRequest) (RefundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return RefundResult{}, ErrUnavailable
	}
	if res, ok := s.refunds[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return res, nil
	}
	captured, ok := s.captured[req.TransactionID]
	if !ok {
		return RefundResult{}, fmt.Errorf("unknown transaction %s: %w", req.TransactionID, ErrDeclined)
	}
	if s.refunded[req.TransactionID]+req.AmountCents > captured {
		return RefundResult{}, fmt.Errorf("refund exceeds captured amount: %w", ErrDeclined)
	}

	res := RefundResult{
		RefundID: deriveID("refund", req.IdempotencyKey),
		Status:   "refunded",
		Raw:      map[string]any{"amount": req.AmountCents, "sandbox": true},
	}
	s.refunds[req.IdempotencyKey] = res
	s.refunded[req.TransactionID] += req.AmountCents
	return res, nil
}

// Refunded reports the total refunded against a charge.
func (s *Sandbox) Refunded(transactionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refunded[transactionID]
}

func deriveID(kind, key string) string {
	if key == "" {
		key = uuid.NewString()
	}
	return kind + "_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+key)).String()
}
