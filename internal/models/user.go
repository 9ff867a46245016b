package models

// WalletRegistration is the payment destination a user has registered.
// Bills created by the user send every participant payment to Address.
type WalletRegistration struct {
	// FID is the Farcaster id of the user.
	FID int64 `json:"fid"`

	// Address is the EIP-55 checksummed address.
	Address string `json:"address"`

	// RegisteredAt is the Unix timestamp of the registration.
	RegisteredAt int64 `json:"registeredAt"`
}

// NotificationDetails are the mini-app notification credentials a Farcaster
// client hands out when the user enables notifications.
type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}
