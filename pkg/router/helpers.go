package router

import (
	"fmt"

	pkgconfig "github.com/plannr/plannr-backend/pkg/config"
	"github.com/plannr/plannr-backend/pkg/externalprovider"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/plannr/plannr-backend/pkg/role"
	"github.com/plannr/plannr-backend/pkg/tokengenerator"
	"github.com/plannr/plannr-backend/pkg/user"
)

// NewConfig wires every service on top of repo and returns a router Config.
// HealthCheck is left unset.
//
// Example:
//
//	cfg, err := router.NewConfig(repo, appConfig)
//	if err != nil {
//	    return err
//	}
//	handler := router.NewRouter(cfg)
func NewConfig(repo iam.IamRepository, appConfig pkgconfig.Config) (Config, error) {
	tokens, err := tokengenerator.NewJwtTokenGenerator(
		appConfig.JWT.Secret,
		tokengenerator.WithIssuer(appConfig.JWT.Issuer),
		tokengenerator.WithAudience(appConfig.JWT.Audience),
		tokengenerator.WithExpiry(appConfig.JWT.AccessTokenExpiry),
	)
	if err != nil {
		return Config{}, fmt.Errorf("failed to create token generator: %w", err)
	}

	loginService := login.NewLoginService(repo, tokens,
		login.WithPasswordHasher(login.NewBcryptHasher(appConfig.Password.BcryptCost)),
	)

	verifier := externalprovider.NewGoogleVerifier(
		appConfig.Google.ClientID,
		externalprovider.WithTokenInfoURL(appConfig.Google.TokenInfoURL),
		externalprovider.WithTimeout(appConfig.Google.Timeout),
	)
	googleService := externalprovider.NewExternalProviderService(repo, loginService, verifier)

	return Config{
		LoginHandle:  login.NewHandle(loginService),
		GoogleHandle: externalprovider.NewHandle(googleService),
		RoleHandle:   role.NewHandle(role.NewRoleService(repo)),
		UserHandle:   user.NewHandle(user.NewUserService(repo)),

		Tokens: tokens,
		Users:  repo,

		CORSOrigins:    appConfig.Server.AllowedOrigins(),
		RequestTimeout: appConfig.Server.RequestTimeout,
		RateLimit:      appConfig.RateLimit,
	}, nil
}
