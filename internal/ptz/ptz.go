package ptz

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vigilcam/ptzd/internal/api"
	"github.com/vigilcam/ptzd/internal/api/ws"
	"github.com/vigilcam/ptzd/internal/app"
	"github.com/vigilcam/ptzd/pkg/creds"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

func Init() {
	var cfg struct {
		Mod struct {
			Timeout     time.Duration `yaml:"timeout"`
			CacheTTL    time.Duration `yaml:"cache_ttl"`
			CacheSize   int           `yaml:"cache_size"`
			Profile     int           `yaml:"profile"`
			CheckFaults bool          `yaml:"check_faults"`
		} `yaml:"ptz"`
		Monitors map[string]string `yaml:"monitors"`
		Redis    struct {
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			LockTTL  time.Duration `yaml:"lock_ttl"`
		} `yaml:"redis"`
		NATS struct {
			URL     string `yaml:"url"`
			Subject string `yaml:"subject"`
			Retries int    `yaml:"retries"`
		} `yaml:"nats"`
	}

	// default config
	cfg.Mod.Timeout = onvif.DefaultTimeout
	cfg.Mod.CacheTTL = 10 * time.Minute
	cfg.Mod.CacheSize = 128
	cfg.NATS.Subject = DefaultSubject
	cfg.NATS.Retries = 3

	app.LoadConfig(&cfg)

	log = app.GetLogger("ptz")

	transport := onvif.NewHTTPTransport(cfg.Mod.Timeout)
	transport.CheckFaults = cfg.Mod.CheckFaults

	commander := onvif.NewCommander(transport)
	commander.OnAnomaly = func(err error) {
		log.Warn().Err(err).Msg("[ptz] profiles anomaly")
	}

	service = NewService(commander, NewMonitors(), cfg.Mod.CacheSize, cfg.Mod.CacheTTL)
	service.Profile = cfg.Mod.Profile

	service.Metrics = NewMetrics(api.Registry)
	commander.OnRequest = func(op string, err error) {
		service.Metrics.OnRequest(op, err)
		if err != nil {
			log.Trace().Err(err).Str("op", op).Msg("[ptz] request")
		}
	}

	if cfg.Redis.Addr != "" {
		creds.AddSecret(cfg.Redis.Password)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		service.Locker = NewRedisLocker(client, cfg.Redis.LockTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("[ptz] redis lock")
	}

	if cfg.NATS.URL != "" {
		// no wait for connection, client will reconnect in background
		conn, err := nats.Connect(
			cfg.NATS.URL, nats.Name(app.UserAgent),
			nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1),
		)
		if err != nil {
			log.Error().Err(err).Msg("[ptz] nats connect")
		} else {
			service.Publisher = NewNATSPublisher(conn, cfg.NATS.Subject, cfg.NATS.Retries)
		}
	}

	loadMonitors(cfg.Monitors)

	app.OnConfigChange(reloadMonitors)

	api.HandleFunc("api/ptz/capabilities", apiCapabilities)
	api.HandleFunc("api/ptz/capabilities/", apiCapabilities)
	api.HandleFunc("api/ptz/move", apiMove)
	api.HandleFunc("api/ptz/move/", apiMove)
	api.HandleFunc("api/ptz/monitors", apiMonitors)
	api.HandleFunc("api/ptz/discovery", apiDiscovery)

	ws.HandleFunc("ptz", wsMove)
}

var log zerolog.Logger
var service *Service

// Move - PTZ command from other modules (mqtt)
func Move(ctx context.Context, monitor string, d onvif.Direction) (*MoveResult, error) {
	if service == nil {
		return nil, ErrUnknownMonitor
	}
	return service.Move(ctx, monitor, d)
}

func loadMonitors(raw map[string]string) {
	changed, errs := service.Monitors.Load(raw)
	for _, err := range errs {
		log.Warn().Err(err).Send()
	}
	if len(changed) > 0 {
		service.Invalidate(changed...)
		log.Debug().Strs("monitors", changed).Msg("[ptz] changed")
	}
}

func reloadMonitors() {
	var cfg struct {
		Monitors map[string]string `yaml:"monitors"`
	}
	app.LoadConfig(&cfg)
	loadMonitors(cfg.Monitors)
}
