package domain

// AccountType defines the fundamental accounting type of an account group.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// TypeClass buckets account types into the two nesting-compatible families:
// balance-sheet types (asset/liability/equity) and result types (income/expense).
// A group may only nest under a parent of the same class.
func (t AccountType) TypeClass() string {
	switch t {
	case Asset, Liability, Equity:
		return "balance"
	case Income, Expense:
		return "result"
	default:
		return ""
	}
}

// AccountGroup is a node in the account hierarchy tree. The parent relation
// forms a forest scoped to one account book.
type AccountGroup struct {
	GroupID       string      `json:"groupID"`       // Primary Key (e.g., UUID)
	AccountBookID string      `json:"accountBookID"` // FK -> account_books (Not Null)
	Name          string      `json:"name"`
	ParentGroupID *string     `json:"parentGroupID"` // Nullable FK -> account_groups (self-referencing)
	AccountType   AccountType `json:"accountType"`
	SortOrder     int         `json:"sortOrder"`
	IsActive      bool        `json:"isActive"`
	AuditFields
}

// Account is a leaf attached to exactly one AccountGroup. It does not carry a
// unit itself: the unit is determined per booking, so one account can track
// several unit keys (a brokerage account holding several securities).
type Account struct {
	AccountID string `json:"accountID"` // Primary Key (e.g., UUID)
	GroupID   string `json:"groupID"`   // FK -> account_groups (Not Null)
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	AuditFields
}
