package models

// All lists every persisted model, in dependency order, for auto-migration.
func All() []any {
	return []any{
		&Merchant{},
		&Offer{},
		&RedemptionToken{},
		&Redemption{},
		&LedgerEntry{},
		&User{},
		&PendingRole{},
		&OfferDailyCounter{},
		&OutboxEvent{},
	}
}
