package http

import (
	"context"
	"net/http"

	"github.com/dkeye/lobbyrelay/internal/adapters/signal"
	"github.com/dkeye/lobbyrelay/internal/config"
	"github.com/dkeye/lobbyrelay/internal/domain"
	"github.com/dkeye/lobbyrelay/internal/lobbyd"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	PeerTokenHeader = "X-Peer-Token"
	peerSessionKey  = "peer"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware resolves the caller's peer identity: the
// X-Peer-Token header if present, else the one remembered in the signed
// session cookie, else a fresh uuid. The result is stored in the session
// and under "client_token" in the gin context.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token := c.GetHeader(PeerTokenHeader)
		if token == "" {
			token, _ = session.Get(peerSessionKey).(string)
		}
		if token == "" {
			token = genClientToken()
		}
		if cur, _ := session.Get(peerSessionKey).(string); cur != token {
			session.Set(peerSessionKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.ServerConfig, ctl *signal.Controller, lobbies *lobbyd.Lobbies) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("LobbySessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	api := r.Group("/api")

	api.GET("/lobbies", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"lobbies": lobbies.ListPublic()})
	})

	// Invisible lobbies are never disclosed, not even by id.
	api.GET("/lobbies/:id", func(c *gin.Context) {
		id, err := domain.ParseLobbyID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, ok := lobbies.Get(id)
		if !ok || info.Visibility == domain.Invisible {
			c.JSON(http.StatusNotFound, gin.H{"error": lobbyd.ErrLobbyNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	api.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"peer": c.GetString("client_token")})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("peer", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
