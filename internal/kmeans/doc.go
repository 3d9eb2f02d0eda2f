// Package kmeans runs multi-restart k-means clustering over dense feature
// vectors.
//
// A Runner drives an Optimizer (Lloyd's algorithm with k-means++ seeding by
// default) once per attempt, each attempt with its own seeded RNG. Attempts
// that leave a cluster empty are rejected, the lowest-WCSS survivor wins, and
// every candidate passes through Repair so callers always receive one
// assignment per row and k finite centroids of the feature dimension.
package kmeans
