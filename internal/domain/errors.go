package domain

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomClosed       = errors.New("room is closed")
	ErrUnknownAction    = errors.New("unknown action")
	ErrDuplicateAction  = errors.New("action already exists")
	ErrNotOwner         = errors.New("not-owner")
	ErrMalformedIntent  = errors.New("malformed intent")
	ErrNotJoined        = errors.New("session has not joined a room")
	ErrAlreadyJoined    = errors.New("session already joined another room")
	ErrSessionClosed    = errors.New("session is closed")
	ErrUnsupportedKind  = errors.New("unsupported action kind")
	ErrPayloadNotObject = errors.New("payload must be a json object")
)
