package lesson

import (
	"context"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
	"github.com/primer-ml/primer/internal/dataset"
	"github.com/primer-ml/primer/internal/tree"
)

// RunIris fits the decision tree on the iris measurements and reports
// train and held-out accuracy. There are no epochs here; the recorder
// only sees the final scores.
func RunIris(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iris, err := dataset.LoadIris()
	if err != nil {
		return nil, err
	}
	xTrain, xTest, yTrain, yTest, err := dataset.TrainTestSplit(iris.X, iris.Y, cfg.Iris.TestRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info("Dataset ready",
		zap.Int("train_samples", len(yTrain)),
		zap.Int("test_samples", len(yTest)))

	clf := tree.NewClassifier(tree.Config{
		MaxDepth:            cfg.Iris.MaxDepth,
		MinSamplesSplit:     cfg.Iris.MinSamplesSplit,
		MinImpurityDecrease: cfg.Iris.MinImpurityDecrease,
	})
	if err := clf.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}

	trainAcc, err := clf.Score(xTrain, yTrain)
	if err != nil {
		return nil, err
	}
	testAcc, err := clf.Score(xTest, yTest)
	if err != nil {
		return nil, err
	}
	rec.Record(0, "train_acc", trainAcc)
	rec.Record(0, "test_acc", testAcc)

	for i, imp := range clf.FeatureImportances() {
		logger.Info("Feature importance",
			zap.String("feature", iris.FeatureNames[i]),
			zap.Float64("importance", imp))
	}
	logger.Debug("Fitted tree", zap.String("structure", clf.ExportText(iris.FeatureNames)))
	logger.Info("Iris tree complete",
		zap.Int("depth", clf.Depth()),
		zap.Float64("train_acc", trainAcc),
		zap.Float64("test_acc", testAcc))

	return map[string]float64{
		"train_acc": trainAcc,
		"test_acc":  testAcc,
		"depth":     float64(clf.Depth()),
	}, nil
}
