package config

import "go.uber.org/fx"

// ExchangePath and ClientPath are the fx-injectable config file paths;
// cmd/exchange and cmd/tradeclient supply them from CLI flags.
type ExchangePath string
type ClientPath string

// ExchangeModule loads and supplies an *ExchangeConfig from the path fx
// was given via fx.Supply(ExchangePath(...)).
var ExchangeModule = fx.Module("config",
	fx.Provide(func(path ExchangePath) (*ExchangeConfig, error) {
		return LoadExchangeConfig(string(path))
	}),
)

// ClientModule loads and supplies a *ClientConfig from the path fx was
// given via fx.Supply(ClientPath(...)).
var ClientModule = fx.Module("config",
	fx.Provide(func(path ClientPath) (*ClientConfig, error) {
		return LoadClientConfig(string(path))
	}),
)
