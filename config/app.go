package config

type App struct {
	Port        string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTTTLHours int    `env:"JWT_TTL_HOURS" envDefault:"24"`
	Env         string `env:"APP_ENV" envDefault:"dev"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Cache TTLs in seconds. Collection entries are cheaper to rebuild
	// than single-entity entries, so they expire sooner.
	CacheListTTL   int `env:"CACHE_LIST_TTL" envDefault:"300"`
	CacheEntityTTL int `env:"CACHE_ENTITY_TTL" envDefault:"600"`

	// Hours before a rental ends at which the auto reminder is scheduled.
	ReminderLeadHours int `env:"REMINDER_LEAD_HOURS" envDefault:"48"`
}
