package investment

import "errors"

// Plan errors
var (
	ErrPlanNotFound        = errors.New("investment plan not found")
	ErrInvalidPlanBounds   = errors.New("plan min amount exceeds max amount")
	ErrInvalidPlanROI      = errors.New("plan daily ROI must be positive")
	ErrInvalidPlanDuration = errors.New("plan duration must be positive")
)

// Position errors
var (
	ErrPositionNotFound = errors.New("investment position not found")
	ErrAmountOutOfRange = errors.New("amount outside plan bounds")
	ErrInvalidAmount    = errors.New("amount must be positive")
)
