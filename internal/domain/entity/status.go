package entity

// Status состояние адаптера, видимое хосту.
type Status string

const (
	StatusModelLoading Status = "modelLoading" // Модель загружается
	StatusModelReady   Status = "modelReady"   // Модель готова к работе
	StatusInfering     Status = "infering"     // Идёт инференс
	StatusModelError   Status = "modelError"   // Загрузка модели провалилась
	StatusError        Status = "error"        // Ошибка обработки сообщения
	StatusClose        Status = "close"        // Адаптер остановлен

	// Текстовые статусы конфигурации, выводятся серым.
	StatusSetURL           Status = "set a New URL"
	StatusModeNotSupported Status = "mode not supported"
)

// NodeStatus то, как хост отображает статус: цвет, форма индикатора и текст.
// Пустой NodeStatus означает «очистить статус».
type NodeStatus struct {
	Fill  string `json:"fill,omitempty"`
	Shape string `json:"shape,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Presentation возвращает отображение статуса для хоста.
func (s Status) Presentation() NodeStatus {
	switch s {
	case StatusModelReady:
		return NodeStatus{Fill: "green", Shape: "dot", Text: "ready"}
	case StatusModelLoading:
		return NodeStatus{Fill: "yellow", Shape: "ring", Text: "loading model..."}
	case StatusInfering:
		return NodeStatus{Fill: "blue", Shape: "ring", Text: "infering..."}
	case StatusModelError:
		return NodeStatus{Fill: "red", Shape: "dot", Text: "model error"}
	case StatusError:
		return NodeStatus{Fill: "red", Shape: "dot", Text: "error"}
	case StatusClose:
		return NodeStatus{}
	default:
		return NodeStatus{Fill: "grey", Shape: "dot", Text: string(s)}
	}
}

// IsFailure сообщает, является ли статус состоянием ошибки.
func (s Status) IsFailure() bool {
	return s == StatusModelError || s == StatusError
}
