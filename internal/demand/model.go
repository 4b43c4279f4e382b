// Package demand fits the weekly demand regression used by the dashboard.
package demand

import (
	"fmt"
	"math"

	"ecostock/internal/model"

	"gonum.org/v1/gonum/mat"
)

// Model is an ordinary least-squares fit of WeeklySales on the encoded
// features. A Model is immutable once fitted.
type Model struct {
	encoder   *Encoder
	coef      []float64
	intercept float64
	rank      int
}

// Fit trains a model on records. The regression is solved on centred data
// with a thin SVD, taking the minimum-norm solution when the one-hot columns
// are collinear, so the fit is deterministic for a given input order.
func Fit(records []model.InventoryRecord) (*Model, error) {
	n := len(records)
	if n == 0 {
		return nil, &model.DataError{Field: "dataset", Err: model.ErrEmptyDataset}
	}

	for i, rec := range records {
		if math.IsNaN(rec.WeeklySales) || math.IsInf(rec.WeeklySales, 0) {
			return nil, &model.DataError{
				Row:   i + 1,
				Field: "WeeklySales",
				Value: fmt.Sprint(rec.WeeklySales),
				Err:   fmt.Errorf("target must be a finite number"),
			}
		}
	}

	encoder := NewEncoder(records)
	p := encoder.Width()

	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	row := make([]float64, p)
	for i, rec := range records {
		encoder.Transform(rec, row)
		x.SetRow(i, row)
		y[i] = rec.WeeklySales
	}

	xMean := make([]float64, p)
	for j := 0; j < p; j++ {
		xMean[j] = mean(mat.Col(nil, j, x))
	}
	yMean := mean(y)

	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, x.At(i, j)-xMean[j])
		}
		y[i] -= yMean
	}

	coef, rank, err := leastSquares(x, y)
	if err != nil {
		return nil, err
	}

	intercept := yMean
	for j := range coef {
		intercept -= xMean[j] * coef[j]
	}

	return &Model{
		encoder:   encoder,
		coef:      coef,
		intercept: intercept,
		rank:      rank,
	}, nil
}

// Predict returns one demand estimate per record, rounded to 2 decimals.
func (m *Model) Predict(records []model.InventoryRecord) []float64 {
	out := make([]float64, len(records))
	row := make([]float64, m.encoder.Width())
	for i, rec := range records {
		m.encoder.Transform(rec, row)
		out[i] = Round(m.raw(row))
	}
	return out
}

func (m *Model) raw(features []float64) float64 {
	v := m.intercept
	for j, c := range m.coef {
		v += c * features[j]
	}
	return v
}

// Intercept returns the fitted intercept.
func (m *Model) Intercept() float64 {
	return m.intercept
}

// Coefficients returns the fitted weight of every encoded feature by name.
func (m *Model) Coefficients() map[string]float64 {
	names := m.encoder.FeatureNames()
	out := make(map[string]float64, len(names))
	for j, name := range names {
		out[name] = m.coef[j]
	}
	return out
}

// Rank is the numerical rank of the centred design matrix.
func (m *Model) Rank() int {
	return m.rank
}

// Round rounds v to 2 decimal places by rounding v·100 half to even in
// binary, so a value stored just below a printed tie rounds down
// (2.675 becomes 2.67).
func Round(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// leastSquares returns the minimum-norm solution of x·β ≈ y. Singular values
// below eps·max(n,p)·σmax are treated as zero.
func leastSquares(x *mat.Dense, y []float64) ([]float64, int, error) {
	n, p := x.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("singular value decomposition did not converge")
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	coef := make([]float64, p)
	if len(values) == 0 || values[0] == 0 {
		return coef, 0, nil
	}

	threshold := math.Nextafter(1, 2) - 1
	threshold *= float64(max(n, p)) * values[0]

	yVec := mat.NewVecDense(n, y)
	rank := 0
	for k, s := range values {
		if s <= threshold {
			break
		}
		rank++
		weight := mat.Dot(u.ColView(k), yVec) / s
		for j := 0; j < p; j++ {
			coef[j] += weight * v.At(j, k)
		}
	}

	return coef, rank, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
