package billing

import (
	"github.com/riverqueue/river"
)

// SettledJobArgs is enqueued in the same transaction that first marks a
// payment as paid.
type SettledJobArgs struct {
	// PaymentID is unique so a payment is announced at most once.
	PaymentID string `json:"payment_id" river:"unique"`
	MemberID  string `json:"member_id"`
	// Amount is the decimal amount in its fixed two-digit form.
	Amount string `json:"amount"`

	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the worker.
func (args SettledJobArgs) Kind() string { return "payment_settled" }

// InsertOpts returns the River options applied when the job is enqueued.
func (args SettledJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
}
