package enums

// OutboxEventType enumerates domain events emitted through the outbox.
type OutboxEventType string

const (
	EventProductCreated OutboxEventType = "product.created"
	EventSaleCompleted  OutboxEventType = "sale.completed"
	EventCartCanceled   OutboxEventType = "cart.canceled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateProduct          OutboxAggregateType = "product"
	AggregateCart             OutboxAggregateType = "cart"
	AggregateSalesTransaction OutboxAggregateType = "sales_transaction"
)
