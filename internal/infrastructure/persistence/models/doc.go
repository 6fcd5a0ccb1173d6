// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of
// ORM concerns.
//
//   - base.go: BaseModel and AggregateModel shared by every table
//   - material.go: materials and their key/value properties
//   - purchase.go: purchase documents and lines
//   - lot.go: lots and the append-only movement ledger
//   - writeoff.go: write-off documents and lines
//
// Repositories convert with ToDomain / FromDomain and never hand models to callers.
package models
