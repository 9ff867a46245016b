package storage

import "fmt"

const keyPrefix = "sharethebill:"

// BillKey is the document key of a bill.
func BillKey(billID string) string {
	return keyPrefix + "bill:" + billID
}

// UserBillsKey is the set of bill ids a user created or participates in.
func UserBillsKey(fid int64) string {
	return fmt.Sprintf("%suser_bills:%d", keyPrefix, fid)
}

// OpenBillsKey is the set of bills that are neither completed nor cancelled.
func OpenBillsKey() string {
	return keyPrefix + "open_bills"
}

// WalletKey holds a user's registered payment address.
func WalletKey(fid int64) string {
	return fmt.Sprintf("%swallet:%d", keyPrefix, fid)
}

// NotificationDetailsKey holds a user's mini-app notification url and token.
func NotificationDetailsKey(fid int64) string {
	return fmt.Sprintf("%snotification_details:%d", keyPrefix, fid)
}
