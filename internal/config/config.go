package config

type Config interface {
	EnvConfig
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
