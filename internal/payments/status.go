package payments

// Status vocabularies for the COD workflow. The order vocabulary is the single
// management one; the legacy view-modal vocabulary (processing/shipped/...)
// was a client bug and is not accepted by this service.

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderAssigned       OrderStatus = "assigned"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

type SettlementStatus string

const (
	SettlementPending        SettlementStatus = "pending"
	SettlementPaidOnDelivery SettlementStatus = "paid_on_delivery"
	SettlementCompleted      SettlementStatus = "completed"
	SettlementFailed         SettlementStatus = "failed"
	SettlementPartial        SettlementStatus = "partial"
)

type CollectionStatus string

const (
	CollectionNotCollected     CollectionStatus = "not_collected"
	CollectionCollected        CollectionStatus = "collected"
	CollectionPartialCollected CollectionStatus = "partial_collected"
	CollectionFailedCollection CollectionStatus = "failed_collection"
)

type IssueCode string

const (
	IssueCustomerNotAvailable   IssueCode = "customer_not_available"
	IssueAddressIncorrect       IssueCode = "address_incorrect"
	IssueCustomerRefusedPayment IssueCode = "customer_refused_payment"
	IssueInsufficientFunds      IssueCode = "insufficient_funds"
	IssueDamagedGoods           IssueCode = "damaged_goods"
	IssueWrongItems             IssueCode = "wrong_items"
	IssueCustomerUnreachable    IssueCode = "customer_unreachable"
	IssueOther                  IssueCode = "other"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderAssigned, OrderCancelled},
	OrderAssigned:       {OrderOutForDelivery, OrderCancelled},
	OrderOutForDelivery: {OrderDelivered, OrderCancelled},
	OrderDelivered:      {OrderCompleted},
	OrderCompleted:      {},
	OrderCancelled:      {},
}

func ValidOrderStatus(value string) bool {
	_, ok := orderTransitions[OrderStatus(value)]
	return ok
}

func ValidSettlementStatus(value string) bool {
	switch SettlementStatus(value) {
	case SettlementPending, SettlementPaidOnDelivery, SettlementCompleted, SettlementFailed, SettlementPartial:
		return true
	}
	return false
}

func ValidCollectionStatus(value string) bool {
	switch CollectionStatus(value) {
	case CollectionNotCollected, CollectionCollected, CollectionPartialCollected, CollectionFailedCollection:
		return true
	}
	return false
}

func ValidIssueCode(value string) bool {
	switch IssueCode(value) {
	case IssueCustomerNotAvailable, IssueAddressIncorrect, IssueCustomerRefusedPayment,
		IssueInsufficientFunds, IssueDamagedGoods, IssueWrongItems,
		IssueCustomerUnreachable, IssueOther:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Terminal statuses accept nothing; everything else follows the delivery
// lifecycle with cancellation allowed until the order is delivered.
func CanTransition(from, to OrderStatus) bool {
	allowed, ok := orderTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func (s CollectionStatus) Terminal() bool {
	return s == CollectionCollected
}
