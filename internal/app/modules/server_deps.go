package modules

import (
	"tracehub.io/tracehub/internal/api/handlers"
	"tracehub.io/tracehub/internal/api/middleware"
	"tracehub.io/tracehub/internal/config"
)

// JWTConfig derives the token settings from the security config.
func JWTConfig(cfg *config.Config) middleware.JWTConfig {
	issuer := cfg.Security.JWTIssuer
	if issuer == "" {
		issuer = "tracehub"
	}
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSigningKey),
		Issuer:     issuer,
	}
}

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{}
	if infra != nil && infra.DB != nil {
		deps.DB = infra.DB
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
