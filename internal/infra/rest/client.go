// Package rest is the HTTP gateway to the order API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type OrderClient struct {
	base    *url.URL
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     logger.Logger
	metrics metrics.Metrics
}

var _ outbound.OrderGateway = (*OrderClient)(nil)

func NewOrderClient(cfg Config, log logger.Logger, m metrics.Metrics) (*OrderClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "order-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors do not count against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "Circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	return &OrderClient{
		base:  base,
		token: cfg.Token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:      cb,
		log:     log.With(logger.String("component", "order_api")),
		metrics: m,
	}, nil
}

func (c *OrderClient) FetchOrder(ctx context.Context, id string) (*entity.Order, error) {
	if id == "" {
		return nil, entity.ErrIDIsRequired
	}
	var env orderEnvelope
	if err := c.do(ctx, "fetch_order", http.MethodGet, "/orders/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, err
	}
	if env.Order == nil {
		return nil, fmt.Errorf("%w: order %s missing from response", ErrNotFound, id)
	}
	return env.Order.toEntity()
}

func (c *OrderClient) UpdateDeliveryStatus(ctx context.Context, id string, status entity.DeliveryStatus) error {
	if !status.Valid() {
		return entity.ErrUnknownStatus
	}
	path := "/riders/update-delivery-status/" + url.PathEscape(id)
	return c.do(ctx, "update_delivery_status", http.MethodPut, path, statusRequest{Status: status.String()}, nil)
}

func (c *OrderClient) AcceptOrder(ctx context.Context, id string) error {
	return c.do(ctx, "accept_order", http.MethodPut, "/riders/accept-order/"+url.PathEscape(id), nil, nil)
}

func (c *OrderClient) ToggleAvailability(ctx context.Context) (bool, error) {
	var resp toggleResponse
	if err := c.do(ctx, "toggle_active", http.MethodPut, "/riders/toggle-active", nil, &resp); err != nil {
		return false, err
	}
	return resp.Rider.IsActive, nil
}

func (c *OrderClient) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	code := "error"
	defer func() {
		c.metrics.ObserveRESTCallDuration(op, code, time.Since(start).Seconds())
	}()

	_, err := c.cb.Execute(func() (interface{}, error) {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()
		code = strconv.Itoa(resp.StatusCode)

		if err := checkStatus(resp); err != nil {
			return nil, err
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", op, err)
		}
		return nil, nil
	})
	if err != nil {
		c.log.Warn(ctx, "Order API call failed",
			logger.String("operation", op),
			logger.String("status", code),
			logger.WithError(err),
		)
	}
	return err
}

func (c *OrderClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
