package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(otpIssued, otpVerified, activationVerified, activationRegistered, psignIssued)
}

var otpIssued = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "otp_issued_total",
		Help: "One-time passcodes issued, by outcome.",
	},
	[]string{"result"}, // 'sent', 'sandbox', 'rate_limited', 'dispatch_failed'
)

var otpVerified = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "otp_verified_total",
		Help: "One-time passcode verification attempts, by outcome.",
	},
	[]string{"result"}, // 'ok', 'invalid', 'expired', 'exhausted'
)

var activationVerified = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "activation_verify_total",
		Help: "Activation code verification attempts, by outcome.",
	},
	[]string{"result"}, // 'ok', 'not_found', 'used', 'expired'
)

var activationRegistered = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "activation_register_total",
		Help: "Registrations through activation sessions, by outcome.",
	},
	[]string{"result"}, // 'ok', 'invalid_session', 'conflict', 'validation'
)

var psignIssued = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "playback_tickets_issued_total",
		Help: "Signed playback tickets handed to the video platform.",
	},
)

func IncOTPIssued(result string)            { otpIssued.WithLabelValues(result).Inc() }
func IncOTPVerified(result string)          { otpVerified.WithLabelValues(result).Inc() }
func IncActivationVerified(result string)   { activationVerified.WithLabelValues(result).Inc() }
func IncActivationRegistered(result string) { activationRegistered.WithLabelValues(result).Inc() }
func IncPSignIssued()                       { psignIssued.Inc() }
