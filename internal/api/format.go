package telegram

import (
	"fmt"
	"sort"
	"strings"

	"vision-nodes/internal/domain/entity"
)

// maxValuesShown сколько значений выхода предиктора показывать в чате.
const maxValuesShown = 10

// FormatOutput превращает выходное сообщение адаптера в текст ответа.
func FormatOutput(kind entity.AdapterKind, msg *entity.Message) string {
	if kind == entity.KindPredictor {
		return formatValues(msg)
	}

	results, _ := msg.Payload.([]entity.Result)
	if len(results) == 0 {
		return fmt.Sprintf("🤷 Ничего не найдено (порог %v%%).", msg.Threshold)
	}

	var sb strings.Builder
	switch kind {
	case entity.KindClassifier:
		sb.WriteString("🏷 Похоже на:")
		for _, r := range results {
			fmt.Fprintf(&sb, "\n• %s — %s", r.Class, percent(r.Score))
		}
	case entity.KindDetector:
		fmt.Fprintf(&sb, "📦 Найдено объектов: %d", len(results))
		for _, r := range results {
			fmt.Fprintf(&sb, "\n• %s — %s", r.Class, percent(r.Score))
			if len(r.BBox) == 4 {
				fmt.Fprintf(&sb, " [%.0f, %.0f, %.0f×%.0f]", r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3])
			}
		}
	case entity.KindPose:
		fmt.Fprintf(&sb, "🧍 Найдено людей: %d", len(results))
		for i, r := range results {
			fmt.Fprintf(&sb, "\n• поза %d — %s, точек: %d", i+1, percent(r.Score), len(r.Keypoints))
		}
	}

	if len(msg.Classes) > 1 {
		sb.WriteString("\n\n📊 По классам: ")
		sb.WriteString(formatClasses(msg.Classes))
	}
	return sb.String()
}

func formatValues(msg *entity.Message) string {
	values, _ := msg.Payload.([]float32)
	if len(values) == 0 {
		return "🔢 Модель вернула пустой выход."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔢 Выход модели: %d значений", len(values))
	if msg.ArgMax != nil && *msg.ArgMax >= 0 && *msg.ArgMax < len(values) {
		fmt.Fprintf(&sb, "\nargMax = %d (%.4f)", *msg.ArgMax, values[*msg.ArgMax])
	}
	shown := values
	if len(shown) > maxValuesShown {
		shown = shown[:maxValuesShown]
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	fmt.Fprintf(&sb, "\n[%s", strings.Join(parts, ", "))
	if len(values) > len(shown) {
		sb.WriteString(", …")
	}
	sb.WriteString("]")
	return sb.String()
}

func formatClasses(classes map[string]int) string {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s ×%d", name, classes[name])
	}
	return strings.Join(parts, ", ")
}

func percent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
