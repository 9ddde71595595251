package domain

// Overview aggregates read-only figures for the admin board.
type Overview struct {
	ChatsByStatus          map[ChatStatus]int64
	ChatsByPaymentStatus   map[PaymentStatus]int64
	CompletedPayments      int64
	CompletedPaymentsCents int64
	StaffEarnedCents       int64
	PendingRegistrations   int64
}
