package pubsub

import "github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"

// Broadcast queue names. The pub/sub side carries event streams with
// many independent listeners, unlike the broker's work queues.
const (
	QueueReceipts = "payment.receipts"
	QueueUpdates  = "orders.updates"
	QueueTicks    = "market.ticks"
)

// DefaultQueues returns the standard broadcast queue set.
func DefaultQueues() []types.QueueConfig {
	return []types.QueueConfig{
		{Name: QueueReceipts, Policy: types.PolicyBroadcast},
		{Name: QueueUpdates, Policy: types.PolicyBroadcast},
		{Name: QueueTicks, Policy: types.PolicyBroadcast},
	}
}
