// Command tally-proxy is a small diagnostic HTTP server in front of a
// TallyPrime gateway. It exposes health, statistics, and read endpoints as
// JSON so the gateway can be inspected with curl while wiring up a desktop
// client.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tallykit/tallygate/pkg/cache"
	"github.com/tallykit/tallygate/pkg/config"
	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/reader"
	"github.com/tallykit/tallygate/pkg/transport"
)

func main() {
	// A missing .env file is fine; the environment may be set externally.
	_ = godotenv.Load()

	configPath := os.Getenv("TALLY_CONFIG")
	if configPath == "" {
		configPath = "tallygate.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		bootLogger := logging.NewLogger("main")
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(cfg.LogConfig())
	logger := logging.NewLogger("main")

	client := transport.New(cfg.TransportConfig())

	if cfg.Gateway.AutoDiscover {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if port, err := client.Discover(ctx); err != nil {
			logger.Warn().Err(err).Msg("Gateway discovery failed, keeping configured port")
		} else {
			logger.Info().Int("port", port).Msg("Gateway discovered")
		}
		cancel()
	}

	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Using Redis response cache")
		store = cache.NewRedisStore(redisClient, time.Duration(cfg.Cache.DefaultTTLSeconds)*time.Second)
	} else {
		store = cache.NewLRU(cfg.Cache.MaxSize, time.Duration(cfg.Cache.DefaultTTLSeconds)*time.Second)
	}

	r := reader.New(client, reader.WithCache(store))

	monitor := transport.NewMonitor(client, time.Duration(cfg.Gateway.MonitorIntervalSeconds)*time.Second)
	monitor.Start(context.Background())
	defer monitor.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(client))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", statsHandler(r))
	mux.HandleFunc("/company", companyHandler(r))
	mux.HandleFunc("/ledgers", ledgersHandler(r))
	mux.HandleFunc("/daybook", dayBookHandler(r))
	mux.HandleFunc("/errors", errorsHandler(r))

	logger.Info().
		Str("addr", cfg.Server.ListenAddr).
		Str("gateway", cfg.Gateway.Host).
		Int("port", cfg.Gateway.Port).
		Msg("Starting tally-proxy")

	if err := http.ListenAndServe(cfg.Server.ListenAddr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(client *transport.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := client.TestConnection(ctx)
		status := http.StatusOK
		if !resp.Success {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"gateway_reachable": resp.Success,
			"status":            client.Status(),
			"error":             resp.ErrorMessage,
			"response_time_ms":  resp.ResponseTime.Milliseconds(),
		})
	}
}

func statsHandler(r *reader.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, r.Stats())
	}
}

func companyHandler(r *reader.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 30*time.Second)
		defer cancel()

		company, err := r.Company(ctx)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func ledgersHandler(r *reader.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 60*time.Second)
		defer cancel()

		ledgers, err := r.Ledgers(ctx)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   len(ledgers),
			"ledgers": ledgers,
		})
	}
}

func dayBookHandler(r *reader.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		from, to, err := dateRange(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), 60*time.Second)
		defer cancel()

		resp, err := r.Request(ctx, protocol.ReportDayBook, protocol.DateRangeParams(from, to))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if !resp.Success {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.Write([]byte(resp.Data))
	}
}

func errorsHandler(r *reader.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, r.RecentValidationErrors())
	}
}

// dateRange reads from/to query parameters (YYYY-MM-DD), defaulting to the
// current day.
func dateRange(req *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from, to := now, now

	if v := req.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if v := req.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
