package errors

var (
	ErrQRExpired = &DomainError{
		Code:    "QR_EXPIRED",
		Message: "QR code has expired",
	}
	ErrInvalidQR = &DomainError{
		Code:    "INVALID_QR",
		Message: "invalid QR code",
	}
	ErrNotYourQR = &DomainError{
		Code:    "NOT_YOUR_QR",
		Message: "this QR code does not belong to you",
	}
)
