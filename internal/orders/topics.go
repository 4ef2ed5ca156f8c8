package orders

const (
	TopicOrderPlaced    = "warehouse.order.placed"
	TopicOrderCancelled = "warehouse.order.cancelled"
	TopicOrderDeleted   = "warehouse.order.deleted"
	TopicOrderPaid      = "warehouse.order.paid"
)

// Topics lists every topic the manager publishes to.
var Topics = []string{TopicOrderPlaced, TopicOrderCancelled, TopicOrderDeleted, TopicOrderPaid}

// Partition key = order id, so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
