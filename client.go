package ipmisdr

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Port sends one command to a BMC and waits for the response.
// A non-zero completion code must be reported as a *CommandError.
type Port interface {
	Execute(ctx context.Context, cmd Command) error
}

// An argument for creating a Client
type Arguments struct {
	HeaderAttempts     int           // Attempts to read a record header (The default is `5`)
	BodyAttempts       int           // Attempts to read a record body (The default is `20`)
	ReadBytes          uint8         // Initial bytes per Get SDR request (The default is `20`)
	ReadBytesStep      uint8         // Shrink step when the BMC cannot return the requested length (The default is `4`)
	BackoffUnit        time.Duration // Multiplied by the remaining attempts (The default is 100ms)
	ReservationBackoff time.Duration // Wait after a reservation loss in the header phase (The default is 100ms)
	RequestRate        rate.Limit    // Maximum commands per second (The default is `0` which is unlimited)
	Logger             *zap.Logger   // The default discards all logs
	Metrics            *Metrics      // Optional, see NewMetrics
}

func (a *Arguments) setDefault() {
	if a.HeaderAttempts == 0 {
		a.HeaderAttempts = 5
	}
	if a.BodyAttempts == 0 {
		a.BodyAttempts = 20
	}
	if a.ReadBytes == 0 {
		a.ReadBytes = 20
	}
	if a.ReadBytesStep == 0 {
		a.ReadBytesStep = 4
	}
	if a.BackoffUnit == 0 {
		a.BackoffUnit = 100 * time.Millisecond
	}
	if a.ReservationBackoff == 0 {
		a.ReservationBackoff = 100 * time.Millisecond
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
}

func (a *Arguments) validate() error {
	if a.HeaderAttempts < 0 {
		return &ArgumentError{
			Value:   a.HeaderAttempts,
			Message: "Invalid number of header attempts",
		}
	}
	if a.BodyAttempts < 0 {
		return &ArgumentError{
			Value:   a.BodyAttempts,
			Message: "Invalid number of body attempts",
		}
	}
	if a.ReadBytes != 0 && a.ReadBytes < sdrHeaderSize {
		return &ArgumentError{
			Value:   a.ReadBytes,
			Message: "Read bytes must cover the record header",
		}
	}
	if a.BackoffUnit < 0 || a.ReservationBackoff < 0 {
		return &ArgumentError{
			Value:   a.BackoffUnit,
			Message: "Negative backoff",
		}
	}
	if a.RequestRate < 0 {
		return &ArgumentError{
			Value:   a.RequestRate,
			Message: "Negative request rate",
		}
	}
	return nil
}

// IPMI Client for the SDR repository and sensor commands.
//
// A Client is not safe for concurrent use. The reservation and read offset
// of an SDR transfer belong to one BMC session, so hosts sharing a session
// must serialize calls.
type Client struct {
	port    Port
	args    Arguments
	log     *zap.Logger
	metrics *Metrics
	limiter *rate.Limiter
	sleep   func(context.Context, time.Duration) error
}

// Create a Client on top of a Port
func NewClient(port Port, args Arguments) (*Client, error) {
	if port == nil {
		return nil, &ArgumentError{Value: port, Message: "Port is required"}
	}
	if err := args.validate(); err != nil {
		return nil, err
	}
	args.setDefault()

	c := &Client{
		port:    port,
		args:    args,
		log:     args.Logger,
		metrics: args.Metrics,
		sleep:   sleepContext,
	}
	if args.RequestRate > 0 {
		c.limiter = rate.NewLimiter(args.RequestRate, 1)
	}
	return c, nil
}

// Execute sends cmd through the port, honoring the request rate.
func (c *Client) Execute(ctx context.Context, cmd Command) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	err := c.port.Execute(ctx, cmd)
	if err != nil {
		c.log.Debug("command failed", append(zapCommand(cmd), zap.Error(err))...)
	}
	return err
}

func zapCommand(cmd Command) []zap.Field {
	return []zap.Field{
		zap.String("command", cmd.Name()),
		zap.Stringer("request", cmd),
	}
}
