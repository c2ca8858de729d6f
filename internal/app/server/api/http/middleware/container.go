package middleware

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// Container - обертка над Middlewares с дополнительной функциональностью
type Container struct {
	huma.Middlewares
}

// NewContainer создает новый контейнер для мидлварей
func NewContainer() *Container {
	return &Container{
		Middlewares: make(huma.Middlewares, 0),
	}
}

// Add добавляет мидлвари в контейнер в порядке выполнения
func (mc *Container) Add(middlewares ...func(ctx huma.Context, next func(huma.Context))) {
	mc.Middlewares = append(mc.Middlewares, middlewares...)
}

// GetAllAndClear возвращает все мидлвари и очищает внутренний список
func (mc *Container) GetAllAndClear() huma.Middlewares {
	result := mc.Middlewares
	mc.Middlewares = nil
	return result
}

// WriteError прерывает запрос и пишет JSON {"error": msg}.
func WriteError(ctx huma.Context, status int, msg string) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(status)
	return json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": msg,
	})
}
