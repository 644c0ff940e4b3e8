package domain

// Event names delivered to per-user notification channels.
const (
	EventMoneyReceived = "money.received"
	EventMoneySent     = "money.sent"
)

// MoneyEvent is published after a posting commits.
// Amounts are pre-formatted with two decimals by the emitting service.
type MoneyEvent struct {
	Name       string `json:"event"`
	UserKey    string `json:"-"` // Channel owner
	RefNumber  string `json:"ref_number"`
	ReceiverID string `json:"receiver_id"`
	SenderID   string `json:"sender_id"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

// Channel returns the per-user channel name the event is delivered on.
func (e MoneyEvent) Channel() string {
	return "user." + e.UserKey
}
