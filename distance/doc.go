// Package distance provides the similarity kernels used to score items
// against latent query vectors.
//
// Products accumulate in float64 so that long vectors and blended queries
// keep their precision before the final score is narrowed to float32.
//
// # Usage
//
//	s := distance.Dot(user, item)
//	blended := distance.MeanDot(users, item)
package distance
