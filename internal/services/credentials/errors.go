package credentials

import "errors"

var (
	// ErrNotConnected - no usable credential record for the (provider, owner) pair
	ErrNotConnected = errors.New("integration not connected")

	// ErrDecryption - stored ciphertext is corrupt or the encryption key changed.
	// Always fatal, never retried.
	ErrDecryption = errors.New("credential decryption failed")

	// ErrExpiredNoRefresh - access token expired and no refresh token is stored
	ErrExpiredNoRefresh = errors.New("access token expired and no refresh token available")

	// ErrRefreshFailed - network or provider error during refresh. The stored
	// record is left untouched so a later attempt can retry.
	ErrRefreshFailed = errors.New("token refresh failed")
)
