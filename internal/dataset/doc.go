// Package dataset loads and prepares the example datasets the lessons
// train on: MNIST digits (IDX binary, Kaggle CSV, or a synthetic
// stand-in), a small sentiment corpus, the Iris table, and generated
// Gaussian blobs for clustering.
//
// Neural-network datasets are batched into backend tensors with
// CreateBatches; table datasets for the tree and clustering lessons are
// served as gonum matrices. Every loader that involves randomness takes
// an explicit seed so runs reproduce exactly.
package dataset
