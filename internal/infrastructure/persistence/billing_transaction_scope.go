package persistence

import (
	"context"

	appbilling "github.com/campus/backend/internal/application/billing"
	"github.com/campus/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every allocation runs inside one of these: the student row lock, commitment
// mutations, payment insert and receipt sequence all commit or roll back
// together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all billing repositories
// within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StudentRepo returns the student account repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StudentRepo() billing.StudentAccountRepository {
	return NewGormStudentAccountRepository(r.tx)
}

// ProgramRepo returns the program repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProgramRepo() billing.ProgramRepository {
	return NewGormProgramRepository(r.tx)
}

// CommitmentRepo returns the commitment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CommitmentRepo() billing.CommitmentRepository {
	return NewGormCommitmentRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// ReceiptCounterRepo returns the receipt counter repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReceiptCounterRepo() billing.ReceiptCounterRepository {
	return NewGormReceiptCounterRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
