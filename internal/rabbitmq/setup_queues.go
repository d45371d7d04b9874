package rabbitmq

// ExchangeNotifications — обменник событий платежного цикла.
const ExchangeNotifications = "notifications"

// Routing keys событий платежного цикла.
const (
	RoutingKeyPaymentSubmitted = "payment.submitted"
	RoutingKeyPaymentApproved  = "payment.approved"
	RoutingKeyPaymentRejected  = "payment.rejected"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.payment.submitted", RoutingKey: RoutingKeyPaymentSubmitted},
		{QueueName: "notification.payment.approved", RoutingKey: RoutingKeyPaymentApproved},
		{QueueName: "notification.payment.rejected", RoutingKey: RoutingKeyPaymentRejected},
	}
}
