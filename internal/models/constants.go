package models

const (
	// SessionIDPrefix префикс клиентских идентификаторов сессий
	SessionIDPrefix = "session"

	// MinSessionIDLength короче этого payload /start считается мусором
	MinSessionIDLength = 5

	// DefaultPollIntervalSeconds интервал опроса эндпоинта проверки
	DefaultPollIntervalSeconds = 1

	// DefaultMaxPolls потолок опроса: 300 тиков по секунде = 5 минут
	DefaultMaxPolls = 300

	// DefaultSessionTTL время жизни неавторизованной сессии в Redis
	DefaultSessionTTL = 15 * 60 // 15 минут в секундах

	// DefaultAuthorizedTTL время жизни авторизованной сессии
	DefaultAuthorizedTTL = 24 * 60 * 60 // 24 часа в секундах

	// RateLimitChecks количество проверок сессии в окне
	RateLimitChecks = 5

	// RateLimitWindow окно ограничения частоты проверок
	RateLimitWindow = 1 // 1 секунда

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 256
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)
