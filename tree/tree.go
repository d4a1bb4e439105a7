// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tree provides a CART decision-tree classifier with Gini
// impurity splits.
//
// Example:
//
//	clf := tree.NewClassifier(tree.Config{MaxDepth: 3})
//	if err := clf.Fit(xTrain, yTrain); err != nil {
//	    return err
//	}
//	acc, err := clf.Score(xTest, yTest)
package tree

import "github.com/primer-ml/primer/internal/tree"

// ErrNotFitted is returned by prediction methods before Fit.
var ErrNotFitted = tree.ErrNotFitted

// Config controls tree growth. MaxDepth 0 means unlimited;
// MinSamplesSplit below 2 is raised to 2.
type Config = tree.Config

// Classifier is a binary-split decision tree over continuous features.
type Classifier = tree.Classifier

// NewClassifier creates an unfitted classifier.
func NewClassifier(config Config) *Classifier {
	return tree.NewClassifier(config)
}
