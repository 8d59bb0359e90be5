package models

// All lists every model, for AutoMigrate in local sqlite runs and tests.
func All() []any {
	return []any{
		&User{},
		&Store{},
		&Address{},
		&Product{},
		&Coupon{},
		&Cart{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
