// Package tree implements a CART decision-tree classifier with a
// scikit-learn-shaped API over gonum matrices: Fit on a feature matrix
// and integer labels, Predict, PredictProba, feature importances and a
// readable text export.
//
// Splits minimize Gini impurity, searching every midpoint between
// consecutive distinct feature values. Growth stops on pure nodes,
// MaxDepth, MinSamplesSplit, or when no split clears
// MinImpurityDecrease.
package tree
