package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// LocateTimeout bounds a locate request; it should exceed the sampler's max allowed wait.
	LocateTimeout time.Duration
}

func NewRouter(opts RouterOptions, timingHandler TimingHandler, attendanceHandler AttendanceHandler, locationHandler LocationHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	locateTimeout := opts.LocateTimeout
	if locateTimeout <= 0 {
		locateTimeout = 3 * time.Minute
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/office-timings", func(r chi.Router) {
			r.Get("/", timingHandler.List)
			r.Post("/", timingHandler.Save)
			r.Get("/resolve", timingHandler.Resolve)
			r.Delete("/{id}", timingHandler.Deactivate)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/evaluate", attendanceHandler.Evaluate)
			r.Post("/evaluate/batch", attendanceHandler.EvaluateBatch)
		})

		r.Route("/devices/{deviceID}", func(r chi.Router) {
			r.Post("/readings", locationHandler.PushReading)
			r.With(chiMiddleware.Timeout(locateTimeout)).Post("/locate", locationHandler.Locate)
		})
	})

	return r
}
