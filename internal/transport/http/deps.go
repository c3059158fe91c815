package http

import (
	"github.com/go-broadcast-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-broadcast-api/internal/infrastructure/jwt"
	s3infra "github.com/go-broadcast-api/internal/infrastructure/s3"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	NotificationRepo *dynamo.NotificationRepo
	AvatarStore      *s3infra.Store
	JWTProvider      *jwtinfra.Provider
}
