package token

import "errors"

var (
	// Authorization errors
	ErrNotOwner = errors.New("token: caller is not the owner")

	// Operational switch errors
	ErrHalted        = errors.New("token: operations are halted")
	ErrAlreadyPaused = errors.New("token: already paused")
	ErrNotPaused     = errors.New("token: not paused")

	// Funds errors
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// Supply governance errors
	ErrSupplyCapExceeded = errors.New("token: issuance exceeds max supply")

	// Argument errors
	ErrZeroAddress = errors.New("token: null identity")
	ErrNilAmount   = errors.New("token: amount is required")
)
