package enums

// RefundStatus tracks money owed back to the buyer on a cancelled paid order.
// NONE is the resting state; PENDING rows are picked up by the refund job.
type RefundStatus string

const (
	RefundStatusNone     RefundStatus = "NONE"
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusRefunded RefundStatus = "REFUNDED"
	RefundStatusFailed   RefundStatus = "FAILED"
)

var refundStatuses = []RefundStatus{RefundStatusNone, RefundStatusPending, RefundStatusRefunded, RefundStatusFailed}

func (r RefundStatus) String() string { return string(r) }

func (r RefundStatus) IsValid() bool { return member(refundStatuses, r) }

func ParseRefundStatus(value string) (RefundStatus, error) {
	return parse(refundStatuses, "refund status", value)
}
