package broker

import "github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"

// Queue names form the fixed payment routing topology. Queues are
// declared once at startup; publishing anywhere else is a configuration
// error.
const (
	QueueProcessing   = "payment.processing"
	QueueValidation   = "payment.validation"
	QueueNotification = "payment.notification"
	QueueAudit        = "payment.audit"
	QueueDeadletter   = "payment.deadletter"
)

// DefaultQueues returns the declared queue set. Broker queues use
// exclusive delivery: only the first registered consumer receives each
// message.
func DefaultQueues() []types.QueueConfig {
	return []types.QueueConfig{
		{Name: QueueProcessing, Policy: types.PolicyExclusive},
		{Name: QueueValidation, Policy: types.PolicyExclusive},
		{Name: QueueNotification, Policy: types.PolicyExclusive},
		{Name: QueueAudit, Policy: types.PolicyExclusive},
		{Name: QueueDeadletter, Policy: types.PolicyExclusive},
	}
}
