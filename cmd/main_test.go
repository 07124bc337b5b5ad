package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/mlbedge/internal/adapters/http/api"
	"github.com/okian/mlbedge/internal/adapters/http/swagger"
	app "github.com/okian/mlbedge/internal/app"
	"github.com/okian/mlbedge/internal/config"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/pkg/logger"
	"github.com/okian/mlbedge/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("MLBEDGE_ADDR", ":8080")
			_ = os.Setenv("MLBEDGE_SEASON", "2025")
			_ = os.Setenv("MLBEDGE_FANOUT_LIMIT", "2")
			defer func() {
				_ = os.Unsetenv("MLBEDGE_ADDR")
				_ = os.Unsetenv("MLBEDGE_SEASON")
				_ = os.Unsetenv("MLBEDGE_FANOUT_LIMIT")
			}()

			convey.Convey("Then the overrides are applied", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Season, convey.ShouldEqual, 2025)
				convey.So(cfg.FanoutLimit, convey.ShouldEqual, 2)

				svc := app.New(app.WithConfig(cfg))
				stats := svc.GetStats()
				convey.So(stats["season"], convey.ShouldEqual, 2025)
				convey.So(stats["fanoutLimit"], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When creating the HTTP server", func() {
			svc := app.New()
			convey.So(api.NewServer(svc, svc, 0), convey.ShouldNotBeNil)
		})

		convey.Convey("When creating a metrics manager on a private registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})

		convey.Convey("When the metrics settings are applied to the global manager", func() {
			defer metrics.Init()

			cfg := config.New()
			cfg.MetricsNamespace = "edge"
			cfg.MetricsRefreshMS = 2_000
			cfg.MetricsLabels = map[string]string{"env": "test"}
			manager := metrics.Init(metricsOptions(cfg)...)
			metrics.RecordCacheHit()

			families, err := metrics.GetRegistry().Gather()

			convey.Convey("Then the series use the configured namespace and labels", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(manager.Enabled(), convey.ShouldBeTrue)
				convey.So(manager.RefreshInterval(), convey.ShouldEqual, 2*time.Second)

				var found bool
				for _, f := range families {
					if f.GetName() == "edge_analyzer_cache_hits_total" {
						found = true
						convey.So(f.GetMetric()[0].GetLabel()[0].GetValue(), convey.ShouldEqual, "test")
					}
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, app.New(), 10*time.Millisecond) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a stats API stub", t, func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/teams" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"teams":[{"id":147,"name":"New York Yankees","abbreviation":"NYY"},{"id":111,"name":"Boston Red Sox","abbreviation":"BOS"}]}`))
		}))
		defer upstream.Close()

		cfg := config.New()
		cfg.BaseURL = upstream.URL
		cfg.ProxyURL = ""
		cfg.RetryAttempts = 1

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		api.NewServer(svc, svc, cfg.HistorySize).Register(ctx, mux)

		convey.Convey("When listing teams through the API", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teams", http.NoBody))

			convey.Convey("Then the upstream list is returned sorted by name", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var teams []model.TeamIdentity
				convey.So(json.Unmarshal(w.Body.Bytes(), &teams), convey.ShouldBeNil)
				convey.So(teams, convey.ShouldHaveLength, 2)
				convey.So(teams[0].Name, convey.ShouldEqual, "Boston Red Sox")
			})

			convey.Convey("And the refresh is recorded in history", func() {
				h := httptest.NewRecorder()
				mux.ServeHTTP(h, httptest.NewRequest(http.MethodGet, "/history", http.NoBody))
				convey.So(h.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(h.Body.String(), convey.ShouldContainSubstring, "Teams refreshed")
			})
		})

		convey.Convey("When requesting the docs", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When the listen address is blanked", func() {
			_ = os.Setenv("MLBEDGE_ADDR", "")
			defer func() { _ = os.Unsetenv("MLBEDGE_ADDR") }()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the service is started with an invalid config", func() {
			cfg := config.New()
			cfg.BaseURL = ""
			svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Nop()))

			convey.So(svc.Start(context.Background()), convey.ShouldNotBeNil)
			convey.So(svc.GetStats()["started"], convey.ShouldBeFalse)
		})
	})
}
