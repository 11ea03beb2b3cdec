package billing

import (
	"context"

	"github.com/campus/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to billing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories within
// a transaction. All repositories returned share the same underlying database
// transaction. The allocator depends on this: student row lock, commitment
// mutations, payment rows and receipt counter increments must land together
// or not at all.
type TransactionalRepositories interface {
	// StudentRepo returns the student account repository scoped to the current transaction
	StudentRepo() billing.StudentAccountRepository
	// ProgramRepo returns the program repository scoped to the current transaction
	ProgramRepo() billing.ProgramRepository
	// CommitmentRepo returns the commitment repository scoped to the current transaction
	CommitmentRepo() billing.CommitmentRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() billing.PaymentRepository
	// ReceiptCounterRepo returns the receipt counter repository scoped to the current transaction
	ReceiptCounterRepo() billing.ReceiptCounterRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	studentRepo        billing.StudentAccountRepository
	programRepo        billing.ProgramRepository
	commitmentRepo     billing.CommitmentRepository
	paymentRepo        billing.PaymentRepository
	receiptCounterRepo billing.ReceiptCounterRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	studentRepo billing.StudentAccountRepository,
	programRepo billing.ProgramRepository,
	commitmentRepo billing.CommitmentRepository,
	paymentRepo billing.PaymentRepository,
	receiptCounterRepo billing.ReceiptCounterRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		studentRepo:        studentRepo,
		programRepo:        programRepo,
		commitmentRepo:     commitmentRepo,
		paymentRepo:        paymentRepo,
		receiptCounterRepo: receiptCounterRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StudentRepo returns the student account repository.
func (s *NoOpTransactionScope) StudentRepo() billing.StudentAccountRepository {
	return s.studentRepo
}

// ProgramRepo returns the program repository.
func (s *NoOpTransactionScope) ProgramRepo() billing.ProgramRepository {
	return s.programRepo
}

// CommitmentRepo returns the commitment repository.
func (s *NoOpTransactionScope) CommitmentRepo() billing.CommitmentRepository {
	return s.commitmentRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}

// ReceiptCounterRepo returns the receipt counter repository.
func (s *NoOpTransactionScope) ReceiptCounterRepo() billing.ReceiptCounterRepository {
	return s.receiptCounterRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
