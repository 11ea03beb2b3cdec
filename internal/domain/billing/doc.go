// Package billing holds the tuition billing domain for a multi-tenant campus
// backend: programs, student accounts, payment commitments and the payment
// ledger.
//
// Key aggregates:
//   - Program: commercial terms of an academic program (total value,
//     registration value, module count, billing frequency)
//   - StudentAccount: one student's position in a program: registration
//     balance, current module and completion status
//   - Commitment: a scheduled module installment (SCHEDULED/PENDING/PAID)
//   - Payment: immutable ledger row with a monthly receipt number
//
// Money amounts are COP decimals via shared/valueobject.Money. All write
// paths go through repository interfaces declared in repository.go so the
// application layer can run them inside a single transaction scope.
package billing
