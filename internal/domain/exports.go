package domain

import (
	interfaces "scred/internal/domain/interfaces"
	types "scred/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	AccountID         = types.AccountID
	Fingerprint       = types.Fingerprint
	SlotName          = types.SlotName
	RoomID            = types.RoomID
	IdentityKeyPair   = types.IdentityKeyPair
	IdentityRecord    = types.IdentityRecord
	PublicKeyMaterial = types.PublicKeyMaterial
	SharedSecret      = types.SharedSecret
	RootKey           = types.RootKey
	ChainKey          = types.ChainKey
	MessageKey        = types.MessageKey
	RatchetState      = types.RatchetState
	Session           = types.Session
	EncryptedPayload  = types.EncryptedPayload
	Message           = types.Message
	FrameType         = types.FrameType
	Frame             = types.Frame
	EventKind         = types.EventKind
	ConversationEvent = types.ConversationEvent
	AccountProfile    = types.AccountProfile
	Credentials       = types.Credentials
	Peer              = types.Peer
	SignUpRequest     = types.SignUpRequest
	LogInRequest      = types.LogInRequest
	PublishKeyRequest = types.PublishKeyRequest
	ErrorResponse     = types.ErrorResponse
	ProtocolError     = types.ProtocolError
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityStore   = interfaces.IdentityStore
	KnownPeerStore  = interfaces.KnownPeerStore
	AccountStore    = interfaces.AccountStore
	DirectoryClient = interfaces.DirectoryClient
	Transport       = interfaces.Transport
	IdentityService = interfaces.IdentityService
	SessionService  = interfaces.SessionService
	Conversation    = interfaces.Conversation
	MessageService  = interfaces.MessageService
)

// Re-exported constants and sentinels.
const (
	DefaultSlot = types.DefaultSlot

	FrameJoin    = types.FrameJoin
	FrameJoined  = types.FrameJoined
	FrameMessage = types.FrameMessage
	FrameError   = types.FrameError

	EventDelivered     = types.EventDelivered
	EventSent          = types.EventSent
	EventUndeliverable = types.EventUndeliverable
)

var (
	ErrKeyGeneration         = types.ErrKeyGeneration
	ErrKeyFormat             = types.ErrKeyFormat
	ErrKeyAgreement          = types.ErrKeyAgreement
	ErrKeyDerivation         = types.ErrKeyDerivation
	ErrAuthentication        = types.ErrAuthentication
	ErrSessionNotEstablished = types.ErrSessionNotEstablished
	ErrMessageOutOfOrder     = types.ErrMessageOutOfOrder
	ErrPeerKeyChanged        = types.ErrPeerKeyChanged

	ErrAlreadyPublished = types.ErrAlreadyPublished
	ErrUnauthorized     = types.ErrUnauthorized
	ErrNotFound         = types.ErrNotFound
	ErrConflict         = types.ErrConflict

	NewRoomID        = types.NewRoomID
	NewProtocolError = types.NewProtocolError
	Status           = types.Status
)
