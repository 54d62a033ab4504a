// Package metrics derives the maintenance figures shown on the dashboard
// from snapshots of assets, work orders, technicians, inventory and
// schedules.
//
// Every function is pure and total: it performs no I/O, holds no state and
// answers malformed or missing fields with a defined value (0, false, an
// empty sequence or the "no data" form of CostPerMile) instead of an error.
// Callers pass "now" explicitly so results are deterministic in tests.
//
// Record dates are free text. They are read with parseDate, which accepts
// RFC3339 and the plain date/date-time layouts the UI submits; values
// without a zone are taken as UTC. An unreadable date counts as absent.
//
// Money, percentages and hours are rounded to two decimals, half away from
// zero (0.175 -> 0.18).
package metrics
