// Package cachekeys builds the balance cache keys. The formats are a stable
// contract: mutation actions outside the core reproduce these exact strings to
// invalidate the entries they touch.
package cachekeys

import "fmt"

// AccountBalance is the key for a plain account or group balance:
// account-book:{bookID}:account:{accountID}:balance
func AccountBalance(accountBookID, accountID string) string {
	return fmt.Sprintf("account-book:%s:account:%s:balance", accountBookID, accountID)
}

// HoldingGainLoss is the key for a holding account's gain/loss split:
// account-book:{bookID}:account:holding-gain-loss-{accountID}:balance
func HoldingGainLoss(accountBookID, holdingAccountID string) string {
	return fmt.Sprintf("account-book:%s:account:holding-gain-loss-%s:balance", accountBookID, holdingAccountID)
}

// AccountBookPrefix is the common prefix of every key belonging to one book,
// used for bulk invalidation on structural changes.
func AccountBookPrefix(accountBookID string) string {
	return fmt.Sprintf("account-book:%s:", accountBookID)
}
