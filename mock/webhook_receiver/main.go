// Command webhook_receiver is a local sink for reservation events delivered
// with events.driver=webhook. It verifies the signature when WEBHOOK_SECRET
// is set and logs every event it accepts.
package main

import (
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/internal/infra/events/webhook"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	secret := []byte(os.Getenv("WEBHOOK_SECRET"))

	// WEBHOOK_FAIL_EVERY=N answers every Nth delivery with 503 to exercise retries.
	failEvery, _ := strconv.Atoi(os.Getenv("WEBHOOK_FAIL_EVERY"))

	var received atomic.Int64
	http.HandleFunc("/hooks/reservations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if len(secret) > 0 {
			got := strings.TrimPrefix(r.Header.Get(webhook.HeaderSignature), "sha256=")
			if !hmac.Equal([]byte(got), []byte(webhook.Sign(secret, body))) {
				logger.Warn("rejected event with bad signature",
					zap.String("event_id", r.Header.Get(webhook.HeaderEventID)),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		n := received.Add(1)
		if failEvery > 0 && n%int64(failEvery) == 0 {
			logger.Info("simulating receiver failure", zap.Int64("delivery", n))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var event domain.ReservationEvent
		if err := json.Unmarshal(body, &event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		logger.Info("event received",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("reservation_id", event.ReservationID),
			zap.String("source", r.Header.Get(webhook.HeaderSource)),
		)
		w.WriteHeader(http.StatusNoContent)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			logger.Warn("health write error", zap.Error(err))
		}
	})

	logger.Info("mock webhook receiver running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
