package service

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

// minTrainingSamples is the floor below which a train/test split is
// meaningless.
const minTrainingSamples = 10

const riskFeatureCount = 3

type trainerConfig struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

// riskFeatures extracts the model inputs from one graded performance row:
// quiz one score, attendance percentage, and the mean of the first three
// recorded assignments. Rows missing the quiz or attendance are unusable.
func riskFeatures(p *models.PerformanceRecord) ([riskFeatureCount]float64, bool) {
	var f [riskFeatureCount]float64
	if p.Quiz1 == nil || p.AttendancePercentage == nil {
		return f, false
	}
	f[0] = *p.Quiz1
	f[1] = *p.AttendancePercentage

	var sum float64
	n := 0
	for i := 1; i <= 3; i++ {
		if v := p.Assignment(i); v != nil {
			sum += *v
			n++
		}
	}
	if n > 0 {
		f[2] = sum / float64(n)
	}
	return f, true
}

func atRiskGrade(grade string) bool {
	switch grade {
	case "D", "E", "F":
		return true
	}
	return false
}

// trainRiskModel fits a random forest over every graded performance row of the
// snapshot and evaluates it on a held-out 20% split.
func trainRiskModel(performance []models.PerformanceRecord, cfg trainerConfig) (*TrainedScorer, error) {
	var samples [][riskFeatureCount]float64
	var labels []int
	for i := range performance {
		p := &performance[i]
		if p.Grade == nil {
			continue
		}
		f, ok := riskFeatures(p)
		if !ok {
			continue
		}
		samples = append(samples, f)
		label := 0
		if atRiskGrade(*p.Grade) {
			label = 1
		}
		labels = append(labels, label)
	}

	if len(samples) < minTrainingSamples {
		return nil, appErrors.ErrInsufficientTraining
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Shuffled 80/20 train/test split.
	order := rng.Perm(len(samples))
	testSize := len(samples) / 5
	if testSize == 0 {
		testSize = 1
	}
	split := len(samples) - testSize

	train := make([][riskFeatureCount]float64, 0, split)
	trainLabels := make([]int, 0, split)
	test := make([][riskFeatureCount]float64, 0, testSize)
	testLabels := make([]int, 0, testSize)
	for i, idx := range order {
		if i < split {
			train = append(train, samples[idx])
			trainLabels = append(trainLabels, labels[idx])
		} else {
			test = append(test, samples[idx])
			testLabels = append(testLabels, labels[idx])
		}
	}

	scaler := fitScaler(train)
	for i := range train {
		train[i] = scaler.transform(train[i])
	}
	for i := range test {
		test[i] = scaler.transform(test[i])
	}

	forest := fitForest(train, trainLabels, cfg, rng)

	correct := 0
	for i := range test {
		predicted := 0
		if forest.voteFraction(test[i]) >= 0.5 {
			predicted = 1
		}
		if predicted == testLabels[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(test))

	return &TrainedScorer{
		forest:      forest,
		scaler:      scaler,
		accuracy:    accuracy,
		sampleCount: len(samples),
		trainedAt:   time.Now().UTC(),
	}, nil
}

// TrainedScorer scores each of a student's usable performance rows through the
// forest and averages the at-risk vote fractions. Students without a single
// usable row fall back to the rule-based heuristics.
type TrainedScorer struct {
	forest      *randomForest
	scaler      *standardScaler
	accuracy    float64
	sampleCount int
	trainedAt   time.Time
	fallback    RuleBasedScorer
}

// Score implements RiskScorer.
func (t *TrainedScorer) Score(in RiskInput) float64 {
	var sum float64
	n := 0
	for _, p := range in.Performance {
		f, ok := riskFeatures(p)
		if !ok {
			continue
		}
		sum += t.forest.voteFraction(t.scaler.transform(f))
		n++
	}
	if n == 0 {
		return t.fallback.Score(in)
	}
	return sum / float64(n)
}

// Info implements RiskScorer.
func (t *TrainedScorer) Info() dto.RiskModelInfo {
	trainedAt := t.trainedAt
	return dto.RiskModelInfo{
		Scorer:      "random-forest",
		Trees:       len(t.forest.trees),
		Accuracy:    floatPtr(t.accuracy),
		SampleCount: t.sampleCount,
		TrainedAt:   &trainedAt,
	}
}

// standardScaler centers and scales features to unit variance. Constant
// features keep a unit deviation so transform stays defined.
type standardScaler struct {
	mean [riskFeatureCount]float64
	std  [riskFeatureCount]float64
}

func fitScaler(samples [][riskFeatureCount]float64) *standardScaler {
	s := &standardScaler{}
	n := float64(len(samples))
	for _, row := range samples {
		for j, v := range row {
			s.mean[j] += v
		}
	}
	for j := range s.mean {
		s.mean[j] /= n
	}
	for _, row := range samples {
		for j, v := range row {
			d := v - s.mean[j]
			s.std[j] += d * d
		}
	}
	for j := range s.std {
		s.std[j] = math.Sqrt(s.std[j] / n)
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s
}

func (s *standardScaler) transform(row [riskFeatureCount]float64) [riskFeatureCount]float64 {
	var out [riskFeatureCount]float64
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.std[j]
	}
	return out
}

// randomForest is a bagged ensemble of gini-split decision trees.
type randomForest struct {
	trees []*treeNode
}

// voteFraction returns the fraction of trees predicting the at-risk class.
func (f *randomForest) voteFraction(row [riskFeatureCount]float64) float64 {
	votes := 0
	for _, root := range f.trees {
		if root.predict(row) >= 0.5 {
			votes++
		}
	}
	return float64(votes) / float64(len(f.trees))
}

func fitForest(samples [][riskFeatureCount]float64, labels []int, cfg trainerConfig, rng *rand.Rand) *randomForest {
	trees := cfg.Trees
	if trees <= 0 {
		trees = 100
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 8
	}

	forest := &randomForest{trees: make([]*treeNode, 0, trees)}
	for t := 0; t < trees; t++ {
		// Bootstrap sample with replacement.
		idx := make([]int, len(samples))
		for i := range idx {
			idx[i] = rng.Intn(len(samples))
		}
		forest.trees = append(forest.trees, growTree(samples, labels, idx, maxDepth, rng))
	}
	return forest
}

// treeNode is one node of a CART tree. Leaves carry the positive-class
// fraction of their training samples.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	positive  float64
}

func (n *treeNode) predict(row [riskFeatureCount]float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.positive
}

func growTree(samples [][riskFeatureCount]float64, labels []int, idx []int, depth int, rng *rand.Rand) *treeNode {
	positives := 0
	for _, i := range idx {
		positives += labels[i]
	}
	fraction := float64(positives) / float64(len(idx))

	if depth == 0 || positives == 0 || positives == len(idx) {
		return &treeNode{leaf: true, positive: fraction}
	}

	feature, threshold, ok := bestSplit(samples, labels, idx, rng)
	if !ok {
		return &treeNode{leaf: true, positive: fraction}
	}

	var left, right []int
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, positive: fraction}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(samples, labels, left, depth-1, rng),
		right:     growTree(samples, labels, right, depth-1, rng),
	}
}

// bestSplit searches a random feature subset for the threshold minimising the
// weighted gini impurity of the two children.
func bestSplit(samples [][riskFeatureCount]float64, labels []int, idx []int, rng *rand.Rand) (int, float64, bool) {
	subset := rng.Perm(riskFeatureCount)[:splitFeatureCount()]

	bestGini := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	for _, feature := range subset {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, samples[i][feature])
		}
		for _, threshold := range splitCandidates(values) {
			g := splitGini(samples, labels, idx, feature, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// splitFeatureCount follows the usual sqrt(p) heuristic for classification.
func splitFeatureCount() int {
	n := int(math.Sqrt(riskFeatureCount))
	if n < 1 {
		n = 1
	}
	return n
}

// splitCandidates returns midpoints between consecutive distinct sorted
// values.
func splitCandidates(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var out []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		}
	}
	return out
}

func splitGini(samples [][riskFeatureCount]float64, labels []int, idx []int, feature int, threshold float64) float64 {
	var leftTotal, leftPositive, rightTotal, rightPositive float64
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			leftTotal++
			leftPositive += float64(labels[i])
		} else {
			rightTotal++
			rightPositive += float64(labels[i])
		}
	}
	if leftTotal == 0 || rightTotal == 0 {
		return math.Inf(1)
	}
	total := leftTotal + rightTotal
	return leftTotal/total*gini(leftPositive, leftTotal) + rightTotal/total*gini(rightPositive, rightTotal)
}

func gini(positive, total float64) float64 {
	p := positive / total
	return 2 * p * (1 - p)
}
