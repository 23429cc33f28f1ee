package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"shopgate/internal/auth"
	"shopgate/internal/mailer"
	"shopgate/internal/ratelimiter"
	"shopgate/internal/revocation"
	"shopgate/internal/store"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	revocations   revocation.Store
	mailer        mailer.Client
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	apiURL      string
	db          dbConfig
	redis       redisConfig
	auth        authConfig
	mail        mailConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret   string
	tokenExp time.Duration
	iss      string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.registerUserHandler)
			r.Post("/login", app.loginHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/logout", app.logoutHandler)
				r.Put("/profile", app.updateProfileHandler)
				r.Delete("/delete", app.softDeleteUserHandler)
			})
		})

		// Protected resources, gated per (role, element, action)
		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", app.listUsersHandler)
				r.Get("/{userID}", app.getUserHandler)
				r.Put("/{userID}", app.updateUserHandler)
				r.Delete("/{userID}", app.deleteUserHandler)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", app.listProductsHandler)
				r.Post("/", app.createProductHandler)
				r.Get("/{productID}", app.getProductHandler)
				r.Put("/{productID}", app.updateProductHandler)
				r.Patch("/{productID}", app.patchProductHandler)
				r.Delete("/{productID}", app.deleteProductHandler)
			})

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", app.listStoresHandler)
				r.Post("/", app.createStoreHandler)
				r.Get("/{storeID}", app.getStoreHandler)
				r.Put("/{storeID}", app.updateStoreHandler)
				r.Delete("/{storeID}", app.deleteStoreHandler)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", app.listOrdersHandler)
				r.Post("/", app.createOrderHandler)
				r.Get("/{orderID}", app.getOrderHandler)
				r.Put("/{orderID}", app.updateOrderHandler)
				r.Delete("/{orderID}", app.deleteOrderHandler)
			})

			r.Route("/access-rules", func(r chi.Router) {
				r.Get("/", app.listAccessRulesHandler)
				r.Post("/", app.createAccessRuleHandler)
				r.Get("/{ruleID}", app.getAccessRuleHandler)
				r.Put("/{ruleID}", app.updateAccessRuleHandler)
				r.Delete("/{ruleID}", app.deleteAccessRuleHandler)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
