package domain

import (
	"errors"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNetworkMismatch is returned when the wallet is on a different chain than configured
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrBlockNotFound is returned when a block has not been mined yet
	ErrBlockNotFound = errors.New("block not found")

	// ErrChainUnavailable is returned when the chain node cannot be reached
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrChainRPC is returned when the chain node answered with an error or an undecodable payload
	ErrChainRPC = errors.New("chain rpc error")

	// ErrWalletNotConnected is returned for operations that need a connected wallet
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrWalletRejected is returned when the user rejects a wallet request
	ErrWalletRejected = errors.New("wallet request rejected")

	// ErrNotAuthenticated is returned for operations that need a signed-in account
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrBlankCredentials is returned when email or password is empty
	ErrBlankCredentials = errors.New("email and password must not be blank")

	// ErrInvalidCredentials is returned when email and password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidEmail is returned when an email is malformed
	ErrInvalidEmail = errors.New("invalid email")

	// ErrNotEligible is returned when a vote cannot be cast on a proposal
	ErrNotEligible = errors.New("not eligible to vote")

	// ErrInvalidDecision is returned for unknown vote decisions
	ErrInvalidDecision = errors.New("invalid vote decision")

	// ErrBlankDescription is returned when a proposal description is empty
	ErrBlankDescription = errors.New("proposal description must not be blank")
)
