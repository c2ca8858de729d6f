package health

// Input - запрос проверки доступности, параметров нет.
type Input struct{}

type Output struct {
	Body Response
}

// Response - ответ проверки доступности. Клиент по нему решает, что сервер онлайн.
type Response struct {
	Status string `json:"status" example:"OK" doc:"Health status of the service"`
}
