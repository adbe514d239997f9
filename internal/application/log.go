package app

import "log"

// Logf диагностический логгер пакета. По умолчанию log.Printf,
// в тестах и при встраивании заменяется через SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger заменяет логгер пакета. nil отключает логирование.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
