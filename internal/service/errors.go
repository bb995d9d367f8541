package service

import (
	"github.com/hollisdev/agencydesk/internal/domain"
)

// Shared service errors. Operation context is attached where they are returned.
var (
	ErrPaymentNotSettled = domain.Errorf(domain.EPAYMENT, "", "Payment has not been settled for this order")

	ErrAlreadyRefunded = domain.Errorf(domain.ECONFLICT, "", "Order has already been refunded")

	ErrContractAlreadySigned = domain.Errorf(domain.ECONFLICT, "", "Contract has already been signed")

	ErrContractNotRequired = domain.Errorf(domain.EINVALID, "", "Order has no contract to sign")

	ErrMissingPaymentIntent = domain.Errorf(domain.EPAYMENT, "", "Order has no captured payment to refund")

	ErrRefundReasonRequired = domain.Errorf(domain.EINVALID, "", "A refund reason is required")

	ErrRefundAmountInvalid = domain.Errorf(domain.EINVALID, "", "Partial refund amount must be positive and no greater than the order total")
)
