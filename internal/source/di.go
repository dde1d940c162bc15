package source

import (
	"callsync/internal/config"

	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Source, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewVapiSource(VapiConfig{
			BaseURL: cfg.Vapi.BaseURL,
			APIKey:  cfg.Vapi.APIKey,
			Timeout: cfg.Vapi.Timeout,
		}, nil), nil
	})
}
