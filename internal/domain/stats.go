package domain

import (
	"math"
	"slices"
)

// Mean devuelve la media aritmética. Vacío → (0, false).
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// Median devuelve la mediana sin modificar el slice. Vacío → (0, false).
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}

// Pearson calcula el coeficiente de correlación de Pearson.
// Devuelve false si los slices difieren en largo, tienen < 3 pares, o alguna
// de las dos variables no tiene varianza.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n != len(ys) || n < 3 {
		return 0, false
	}
	mx, _ := Mean(xs)
	my, _ := Mean(ys)

	var cov, vx, vy float64
	for i := range n {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	// tolerancia relativa: series constantes con ruido de redondeo cuentan como sin varianza
	if vx <= 1e-12*float64(n) || vy <= 1e-12*float64(n) {
		return 0, false
	}
	r := cov / math.Sqrt(vx*vy)
	return math.Max(-1, math.Min(1, r)), true
}

// StatOf construye un Stat a partir de un valor y su tamaño de muestra.
func StatOf(v float64, n, minN int) Stat {
	if n < minN || math.IsNaN(v) || math.IsInf(v, 0) {
		return Stat{N: n}
	}
	return Stat{Value: v, N: n, Valid: true}
}

// Round2 redondea a dos decimales (display de métricas).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
