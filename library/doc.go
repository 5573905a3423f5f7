// Package library holds the domain model of the library-management backend:
// the persisted entities (books, members, borrowings, fines, directory
// labels), the borrowing lifecycle, the error taxonomy shared by all
// components, and the relational-store contract the circulation subsystem
// depends on.
//
// The package is free of infrastructure concerns; persistence lives in
// library/postgresengine and orchestration in library/circulation.
package library
