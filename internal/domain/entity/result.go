package entity

// Classification ответ классификатора в терминах внешней библиотеки.
type Classification struct {
	ClassName   string
	Probability float64
}

// Detection найденный объект. BBox хранится как [x, y, width, height] в пикселях.
type Detection struct {
	Class string
	Score float64
	BBox  [4]float64
}

// Keypoint ключевая точка позы.
type Keypoint struct {
	Part     string   `json:"part"`
	Score    float64  `json:"score"`
	Position Position `json:"position"`
}

// Position координаты точки в пикселях исходного изображения.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pose одна найденная поза.
type Pose struct {
	Score     float64
	Keypoints []Keypoint
}

// PoseOptions параметры оценки нескольких поз.
type PoseOptions struct {
	FlipHorizontal bool
	MaxDetections  int
	ScoreThreshold float64 // 0..1
	NMSRadius      int
}

// RawResult выход модели до нормализации. Заполнено ровно одно поле.
type RawResult struct {
	Classifications []Classification
	Detections      []Detection
	Poses           []Pose
	Values          []float32
}

// Result элемент выходного контракта.
type Result struct {
	Class     string     `json:"class"`
	Score     float64    `json:"score"`
	BBox      []float64  `json:"bbox,omitempty"`
	Keypoints []Keypoint `json:"keypoints,omitempty"`
}

// NormalizedResult нормализованный результат инференса.
type NormalizedResult struct {
	Results []Result
	Classes map[string]int // nil, если тип модели не считает классы
	Values  []float32      // только для предиктора
	ArgMax  int
}
