package service

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomBusy           = errors.New("room is busy handling another request")
	ErrCodeSpaceExhausted = errors.New("failed to allocate a unique room code")
	ErrInternalServer     = errors.New("internal server error")
)
