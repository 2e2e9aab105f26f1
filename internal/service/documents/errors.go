package documents

import "errors"

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrContractNotFound     = errors.New("contract not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrQuoteExists          = errors.New("event already has an invoice")
	ErrConversionInProgress = errors.New("conversion already in progress")
)
