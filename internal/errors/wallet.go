package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "wallet not found",
	}
	ErrAlreadyProcessed = &DomainError{
		Code:    "ALREADY_PROCESSED",
		Message: "transaction has already been processed",
	}
	ErrInvalidMethod = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "unsupported withdrawal method",
	}
	ErrMissingPaymentDetails = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "payment details are incomplete for this method",
	}
)
