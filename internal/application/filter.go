package app

import "vision-nodes/internal/domain/entity"

// PersonClass синтетический класс, которым считаются позы.
const PersonClass = "person"

// FilterThreshold оставляет элементы со score >= thresholdPercent/100.
// Результат всегда новый срез, исходный не изменяется.
func FilterThreshold[T any](items []T, score func(T) float64, thresholdPercent int) []T {
	limit := float64(entity.ClampThreshold(thresholdPercent)) / 100
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if score(item) >= limit {
			kept = append(kept, item)
		}
	}
	return kept
}

// FilterResults применяет порог к нормализованным результатам.
func FilterResults(results []entity.Result, thresholdPercent int) []entity.Result {
	return FilterThreshold(results, func(r entity.Result) float64 { return r.Score }, thresholdPercent)
}

// CountClasses считает, сколько раз встречается каждый класс.
func CountClasses(results []entity.Result) map[string]int {
	classes := make(map[string]int, len(results))
	for _, r := range results {
		classes[r.Class]++
	}
	return classes
}

// RemapClassifications переводит className/probability в class/score.
func RemapClassifications(items []entity.Classification) []entity.Result {
	out := make([]entity.Result, 0, len(items))
	for _, c := range items {
		out = append(out, entity.Result{Class: c.ClassName, Score: c.Probability})
	}
	return out
}

// DetectionResults переводит детекции в выходной контракт.
func DetectionResults(items []entity.Detection) []entity.Result {
	out := make([]entity.Result, 0, len(items))
	for _, d := range items {
		out = append(out, entity.Result{
			Class: d.Class,
			Score: d.Score,
			BBox:  []float64{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
		})
	}
	return out
}

// PoseResults переводит позы в выходной контракт с классом person.
func PoseResults(items []entity.Pose) []entity.Result {
	out := make([]entity.Result, 0, len(items))
	for _, p := range items {
		out = append(out, entity.Result{Class: PersonClass, Score: p.Score, Keypoints: p.Keypoints})
	}
	return out
}

// CountPoses возвращает {"person": n} или пустую карту, если поз нет.
func CountPoses(results []entity.Result) map[string]int {
	if len(results) == 0 {
		return map[string]int{}
	}
	return map[string]int{PersonClass: len(results)}
}

// ArgMax возвращает индекс наибольшего значения или -1 для пустого среза.
func ArgMax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
