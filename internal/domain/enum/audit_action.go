package enum

// AuditAction tags an entry in a bill's append-only audit log.
// The set is closed; new actions require a migration of downstream consumers.
type AuditAction string

const (
	AuditBillCreated          AuditAction = "BILL_CREATED"
	AuditItemAdded            AuditAction = "ITEM_ADDED"
	AuditItemRemoved          AuditAction = "ITEM_REMOVED"
	AuditQtyUpdated           AuditAction = "QTY_UPDATED"
	AuditBillMerged           AuditAction = "BILL_MERGED"
	AuditTableMerged          AuditAction = "TABLE_MERGED"
	AuditCustomerUpdated      AuditAction = "CUSTOMER_UPDATED"
	AuditDiscountApplied      AuditAction = "DISCOUNT_APPLIED"
	AuditTaxUpdated           AuditAction = "TAX_UPDATED"
	AuditServiceChargeUpdated AuditAction = "SERVICE_CHARGE_UPDATED"
	AuditBillFinalized        AuditAction = "BILL_FINALIZED"
	AuditBillCancelled        AuditAction = "BILL_CANCELLED"
	AuditPaymentReceived      AuditAction = "PAYMENT_RECEIVED"
)

// Valid reports whether a belongs to the closed action set
func (a AuditAction) Valid() bool {
	switch a {
	case AuditBillCreated, AuditItemAdded, AuditItemRemoved, AuditQtyUpdated,
		AuditBillMerged, AuditTableMerged, AuditCustomerUpdated,
		AuditDiscountApplied, AuditTaxUpdated, AuditServiceChargeUpdated,
		AuditBillFinalized, AuditBillCancelled, AuditPaymentReceived:
		return true
	}
	return false
}
