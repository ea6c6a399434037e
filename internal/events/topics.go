package events

// Topic constants label observer fan-outs in logs and metrics.
const (
	TopicPaymentFinalized = "payment.finalized"
	TopicSaleFinalized    = "sale.finalized"
)

// DefaultTopics returns the canonical list of topics observers can subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicPaymentFinalized,
		TopicSaleFinalized,
	}
}
