package errors

var (
	ErrInvalidContributionType = &DomainError{
		Code:    "INVALID_CONTRIBUTION_TYPE",
		Message: "unknown contribution type",
	}
	ErrInvalidOverride = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "manual award requires an admin identity, a reason and positive points",
	}
	ErrInvalidPointsAmount = &DomainError{
		Code:    "INVALID_POINTS_AMOUNT",
		Message: "points must be a positive integer",
	}
	ErrInsufficientPoints = &DomainError{
		Code:    "INSUFFICIENT_POINTS",
		Message: "not enough exchangeable points",
	}
	ErrMinimumNotMet = &DomainError{
		Code:    "MINIMUM_NOT_MET",
		Message: "minimum exchange threshold not met",
	}
	ErrBadgeNotGrantable = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "badge cannot be granted manually",
	}
)
