package analytics

import (
	"fmt"
	"math"
)

// anomalyFeatureCount is the dimensionality of the per-entity feature
// vector: degree, betweenness, eigenvector, clustering, reach.
const anomalyFeatureCount = 5

// AnomalyScorer turns the centrality feature vectors into a multivariate
// outlier score per entity: the Mahalanobis distance from the population
// mean under the standardised features' covariance. The score is relative to
// the analysed population, not to any fixed domain threshold.
type AnomalyScorer struct {
	ids      []string
	features [][]float64
}

// NewAnomalyScorer builds the feature matrix from computed centrality. The
// id order must be the canonical graph order so scoring is reproducible.
func NewAnomalyScorer(ids []string, centrality *CentralityResult) *AnomalyScorer {
	features := make([][]float64, len(ids))
	for i, id := range ids {
		s := centrality.Scores[id]
		features[i] = []float64{s.Degree, s.Betweenness, s.Eigenvector, s.Clustering, s.Reach}
	}
	return &AnomalyScorer{ids: ids, features: features}
}

// Mahalanobis computes the anomaly score per entity. It fails with
// ErrSingularCovariance when the covariance matrix cannot be inverted,
// which happens with fewer distinct observations than feature dimensions
// or with zero-variance features.
func (a *AnomalyScorer) Mahalanobis() (map[string]float64, error) {
	n := len(a.ids)
	out := make(map[string]float64, n)
	if n == 0 {
		return out, nil
	}

	standardized := standardize(a.features)
	cov := covariance(standardized)
	inv, err := invert(cov)
	if err != nil {
		return nil, err
	}

	// standardised features have zero mean by construction
	for i, row := range standardized {
		out[a.ids[i]] = math.Sqrt(quadraticForm(row, inv))
	}
	return out, nil
}

// Euclidean is the fallback distance for singular populations: the plain
// L2 distance of the standardised feature vector from the (zero) mean.
func (a *AnomalyScorer) Euclidean() map[string]float64 {
	out := make(map[string]float64, len(a.ids))
	if len(a.ids) == 0 {
		return out
	}
	standardized := standardize(a.features)
	for i, row := range standardized {
		out[a.ids[i]] = l2norm(row)
	}
	return out
}

// standardize rescales each feature column to zero mean and unit variance.
// A zero-variance column becomes all zeros: a constant feature carries no
// information about which entity is unusual.
func standardize(features [][]float64) [][]float64 {
	n := len(features)
	dims := anomalyFeatureCount

	mean := make([]float64, dims)
	for _, row := range features {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	std := make([]float64, dims)
	for _, row := range features {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
	}

	out := make([][]float64, n)
	for i, row := range features {
		out[i] = make([]float64, dims)
		for j, v := range row {
			if std[j] > 0 {
				out[i][j] = (v - mean[j]) / std[j]
			}
		}
	}
	return out
}

// covariance is the sample covariance matrix (n-1 denominator) of the
// standardised feature matrix.
func covariance(rows [][]float64) [][]float64 {
	n := len(rows)
	dims := anomalyFeatureCount

	mean := make([]float64, dims)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	cov := make([][]float64, dims)
	for i := range cov {
		cov[i] = make([]float64, dims)
	}
	if n < 2 {
		return cov
	}
	for _, row := range rows {
		for i := 0; i < dims; i++ {
			for j := 0; j < dims; j++ {
				cov[i][j] += (row[i] - mean[i]) * (row[j] - mean[j])
			}
		}
	}
	for i := range cov {
		for j := range cov[i] {
			cov[i][j] /= float64(n - 1)
		}
	}
	return cov
}

// invert performs Gauss-Jordan elimination with partial pivoting. A pivot
// below epsilon means the matrix is numerically singular.
func invert(m [][]float64) ([][]float64, error) {
	const epsilon = 1e-12
	dims := len(m)

	// augmented [m | I]
	aug := make([][]float64, dims)
	for i := range aug {
		aug[i] = make([]float64, 2*dims)
		copy(aug[i], m[i])
		aug[i][dims+i] = 1
	}

	for col := 0; col < dims; col++ {
		pivot := col
		for row := col + 1; row < dims; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(aug[pivot][col]) < epsilon {
			return nil, fmt.Errorf("%w: pivot %d is %g", ErrSingularCovariance, col, aug[pivot][col])
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		scale := aug[col][col]
		for j := range aug[col] {
			aug[col][j] /= scale
		}
		for row := 0; row < dims; row++ {
			if row == col {
				continue
			}
			factor := aug[row][col]
			if factor == 0 {
				continue
			}
			for j := range aug[row] {
				aug[row][j] -= factor * aug[col][j]
			}
		}
	}

	inv := make([][]float64, dims)
	for i := range inv {
		inv[i] = aug[i][dims:]
	}
	return inv, nil
}

// quadraticForm computes x^T M x.
func quadraticForm(x []float64, m [][]float64) float64 {
	total := 0.0
	for i, xi := range x {
		for j, xj := range x {
			total += xi * m[i][j] * xj
		}
	}
	if total < 0 {
		// numerically tiny negatives from near-singular populations
		return 0
	}
	return total
}
