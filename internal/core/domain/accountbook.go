package domain

// GainLossRouting holds the optional identities of the account groups that
// derived unrealized gain/loss postings are routed to, one per holding class.
// A nil pointer means the book does not break that class out.
type GainLossRouting struct {
	SecurityGroupID *string `json:"securityGroupID"`
	CryptoGroupID   *string `json:"cryptoGroupID"`
	FxGroupID       *string `json:"fxGroupID"`
}

// AccountBook is the top-level ledger scope. It owns its groups, accounts and
// transactions; deleting a book cascades to all of them.
type AccountBook struct {
	AccountBookID     string          `json:"accountBookID"`     // Primary Key (e.g., UUID)
	Name              string          `json:"name"`              // User-defined name
	ReferenceCurrency string          `json:"referenceCurrency"` // ISO currency code all values are reported in
	GainLoss          GainLossRouting `json:"gainLoss"`
	AuditFields
}

// GainLossGroupFor returns the configured gain/loss group for a holding unit
// kind, or nil when none is routed. Currency positions route to the fx group.
func (b AccountBook) GainLossGroupFor(kind UnitKind) *string {
	switch kind {
	case UnitSecurity:
		return b.GainLoss.SecurityGroupID
	case UnitCryptocurrency:
		return b.GainLoss.CryptoGroupID
	case UnitCurrency:
		return b.GainLoss.FxGroupID
	default:
		return nil
	}
}
