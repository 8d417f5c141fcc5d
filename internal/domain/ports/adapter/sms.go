package adapter

import "context"

// SMSGateway dispatches a one-time passcode to a phone number. Failure is
// surfaced synchronously; the already-persisted code record is not rolled
// back on dispatch failure.
type SMSGateway interface {
	Name() string
	Send(ctx context.Context, phone, code string) error
}
