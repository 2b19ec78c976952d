package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company represents a bus operator.  Trips and coupons may be scoped
// to a single company.  Companies are managed by platform admins and
// are read-only everywhere else.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique display name of the operator.
//  LogoPath  – optional path to the company logo.
//  CreatedAt – creation timestamp.
type Company struct {
	ID        uint64    // companies.id
	Name      string    // companies.name
	LogoPath  *string   // companies.logo_path (nullable)
	CreatedAt time.Time // companies.created_at
}

// Trip represents one scheduled journey operated by a company.  The
// settlement engine treats trips as read-only catalog data: it reads
// the price, capacity and schedule but never mutates them.
//
// Fields:
//  ID            – primary key identifier.
//  CompanyID     – operating company.
//  FromCity      – origin city.
//  ToCity        – destination city.
//  DepartureTime – when the bus leaves (strictly before ArrivalTime).
//  ArrivalTime   – when the bus arrives.
//  Price         – per-seat price, positive.
//  Capacity      – total number of seats, positive.
//  CreatedAt     – creation timestamp.
type Trip struct {
	ID            uint64          // trips.id
	CompanyID     uint64          // trips.company_id
	FromCity      string          // trips.from_city
	ToCity        string          // trips.to_city
	DepartureTime time.Time       // trips.departure_time
	ArrivalTime   time.Time       // trips.arrival_time
	Price         decimal.Decimal // trips.price
	Capacity      uint32          // trips.capacity
	CreatedAt     time.Time       // trips.created_at
}
