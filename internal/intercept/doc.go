// Package intercept searches a predicted ball path for the earliest moment a
// car can both reach the ball and satisfy a caller's admissibility rule.
//
// Responsibilities: the Intercept record, the filtered forward scan with
// sub-slice tweening, the route-aware scan that turns a candidate into a
// PrecisionPlan, and the midair scan used once a car is already airborne.
// Key types: Intercept, Options, RouteSearch, DirectedKickPlan, PrecisionPlan.
//
// Every search is a pure function of its inputs. "No intercept" is reported
// with a false second result and is never an error.
package intercept
