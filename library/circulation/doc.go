// Package circulation implements the invariant-bearing core of the backend:
// the inventory ledger, which keeps each book's available counter equal to
// total copies minus open loans, and the circulation engine, which drives
// the borrowing lifecycle atomically against the ledger.
//
// Issue and return each run as one scoped store transaction; the counter
// update and the borrowing mutation commit together or not at all. Detected
// serialization conflicts are retried with exponential backoff.
package circulation
