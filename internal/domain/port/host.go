package port

import "vision-nodes/internal/domain/entity"

// Host среда выполнения потока, в которую встроен адаптер
type Host interface {
	// Status отображает состояние адаптера
	Status(status entity.NodeStatus)

	// Error сообщает об ошибке обработки; msg может быть nil для ошибок загрузки
	Error(err error, msg *entity.Message)

	// Send отправляет выходное сообщение дальше по потоку
	Send(msg *entity.Message)
}
