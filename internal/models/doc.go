// Package models defines the core domain models for ShareTheBill.
//
// # Models
//
//   - Bill: a fixed total split across Farcaster users (identified by fid)
//   - Participant: one user's fixed share of a Bill and its payment state
//   - BillSummary: the per-user view of a Bill used by bill listings
//   - WalletRegistration / NotificationDetails: per-user settings kept in the
//     key-value store alongside bills
//
// # Design Principles
//
// 1. **Exact money**: amounts are decimal.Decimal, never float64
// 2. **Participants are embedded**: a Participant only exists inside its Bill
// 3. **Derived status**: Bill.Status is recomputed from participant states,
//    except for cancellation which is an explicit action
// 4. **Versioned documents**: Bill.Version increases on every write so
//    concurrent read-modify-write cycles can detect each other
package models
