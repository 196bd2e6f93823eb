// Package physics owns the predicted ball trajectory.
//
// Responsibilities: the BallSlice/BallPath data model, the Predictor
// contract with a reference ballistic implementation, and TrajectoryCache,
// which decides per frame whether the previous prediction still holds or a
// fresh one is needed.
// Key types: BallSlice, BallPath, Predictor, TrajectoryCache.
//
// A TrajectoryCache belongs to one match session. It is safe for concurrent
// use; recomputation is serialized under the cache's own mutex.
package physics
