package register

import "errors"

var (
	ErrAlreadyPrinted         = errors.New("table transaction is printed and frozen")
	ErrNothingToMove          = errors.New("nothing to move")
	ErrSameTable              = errors.New("source and destination are the same table")
	ErrDestinationUnavailable = errors.New("destination table cannot receive a move")
)
